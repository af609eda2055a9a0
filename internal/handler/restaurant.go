package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/samber/lo"

	"github.com/InoksFatih/SnakTime/internal/domain/catalog"
)

type coordinatesResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type openingHoursResponse struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

type restaurantResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Image        string               `json:"image"`
	Rating       float64              `json:"rating"`
	ReviewCount  int                  `json:"reviewCount"`
	Cuisine      string               `json:"cuisine"`
	Address      string               `json:"address"`
	Coordinates  coordinatesResponse  `json:"coordinates"`
	OpeningHours openingHoursResponse `json:"openingHours"`
	Deals        []dealResponse       `json:"deals"`
	// BestDeal mirrors the restaurant-card badge: the active deal with the
	// highest discount, or the first deal when none are active.
	BestDeal *dealResponse `json:"bestDeal,omitempty"`
}

// ListRestaurants returns every restaurant with its deals and the best-deal
// badge annotation.
func (h *Handler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.catalog.ListRestaurants(r.Context())
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	resp := lo.Map(restaurants, func(rest catalog.Restaurant, _ int) restaurantResponse {
		return h.toRestaurantResponse(rest)
	})
	respondJSON(w, r, http.StatusOK, resp)
}

// GetRestaurant returns a single restaurant by ID.
func (h *Handler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rest, err := h.catalog.GetRestaurant(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrRestaurantNotFound) {
			respondError(w, r, http.StatusNotFound, "restaurant not found")
			return
		}
		respondInternal(w, r, err)
		return
	}

	resp := h.toRestaurantResponse(*rest)
	respondJSON(w, r, http.StatusOK, resp)
}

// ListRestaurantDeals returns the deals owned by a restaurant, each
// annotated with its current activity and remaining time.
func (h *Handler) ListRestaurantDeals(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.catalog.GetRestaurant(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrRestaurantNotFound) {
			respondError(w, r, http.StatusNotFound, "restaurant not found")
			return
		}
		respondInternal(w, r, err)
		return
	}

	deals, err := h.catalog.ListDealsByRestaurant(r.Context(), id)
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	resp := lo.Map(deals, func(d catalog.Deal, _ int) dealResponse {
		return h.toDealResponse(d)
	})
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) toRestaurantResponse(rest catalog.Restaurant) restaurantResponse {
	resp := restaurantResponse{
		ID:          rest.ID,
		Name:        rest.Name,
		Image:       h.imageURL(rest.Image),
		Rating:      rest.Rating.InexactFloat64(),
		ReviewCount: rest.ReviewCount,
		Cuisine:     rest.Cuisine,
		Address:     rest.Address,
		Coordinates: coordinatesResponse{
			Latitude:  rest.Coordinates.Latitude,
			Longitude: rest.Coordinates.Longitude,
		},
		OpeningHours: openingHoursResponse{
			Open:  rest.OpeningHours.Open,
			Close: rest.OpeningHours.Close,
		},
		Deals: lo.Map(rest.Deals, func(d catalog.Deal, _ int) dealResponse {
			return h.toDealResponse(d)
		}),
	}

	if best := h.lifecycle.BestActiveDeal(rest.Deals, h.now()); best != nil {
		bd := h.toDealResponse(*best)
		resp.BestDeal = &bd
	}
	return resp
}
