// Package catalog holds the read-only restaurant and deal catalog types.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/InoksFatih/SnakTime/internal/domain/timewindow"
)

var (
	// ErrRestaurantNotFound is returned when a requested restaurant does not exist.
	ErrRestaurantNotFound = errors.New("restaurant not found")
	// ErrDealNotFound is returned when a requested deal does not exist.
	ErrDealNotFound = errors.New("deal not found")
	// ErrInvalidPrice is returned when a deal's discounted price exceeds its
	// original price, or either price is not positive.
	ErrInvalidPrice = errors.New("invalid deal pricing")
)

// Deal is a time-boxed discount offer owned by a restaurant. Deals are
// immutable catalog entries; the service never creates or mutates them.
type Deal struct {
	ID            string
	RestaurantID  string
	Title         string
	Description   string
	Discount      string // display label, e.g. "20% OFF"
	OriginalPrice decimal.Decimal
	DiscountPrice decimal.Decimal
	StartTime     string // "HH:MM", 24-hour
	EndTime       string // "HH:MM", 24-hour
	Image         string
}

// NewDeal validates and constructs a Deal. It rejects non-positive prices,
// a discounted price above the original, and malformed window times, so
// malformed catalog data cannot flow past construction.
func NewDeal(d Deal) (Deal, error) {
	if !d.OriginalPrice.IsPositive() || !d.DiscountPrice.IsPositive() {
		return Deal{}, errors.Wrapf(ErrInvalidPrice, "deal %q", d.ID)
	}
	if d.DiscountPrice.GreaterThan(d.OriginalPrice) {
		return Deal{}, errors.Wrapf(ErrInvalidPrice, "deal %q: discounted price exceeds original", d.ID)
	}
	if _, err := timewindow.ToMinutes(d.StartTime); err != nil {
		return Deal{}, errors.Wrapf(err, "deal %q start time", d.ID)
	}
	if _, err := timewindow.ToMinutes(d.EndTime); err != nil {
		return Deal{}, errors.Wrapf(err, "deal %q end time", d.ID)
	}
	return d, nil
}

// OpeningHours is a restaurant's daily open/close window.
type OpeningHours struct {
	Open  string // "HH:MM"
	Close string // "HH:MM"
}

// Coordinates is a geographic point.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Restaurant is a catalog entry owning one or more deals.
type Restaurant struct {
	ID           string
	Name         string
	Image        string
	Rating       decimal.Decimal
	ReviewCount  int
	Cuisine      string
	Address      string
	Coordinates  Coordinates
	OpeningHours OpeningHours
	Deals        []Deal
}

// Repository defines read operations over the restaurant/deal catalog.
type Repository interface {
	ListRestaurants(ctx context.Context) ([]Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (*Restaurant, error)
	GetDeal(ctx context.Context, id string) (*Deal, error)
	ListDealsByRestaurant(ctx context.Context, restaurantID string) ([]Deal, error)
}
