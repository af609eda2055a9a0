package saveddeal

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/InoksFatih/SnakTime/internal/domain/catalog"
	"github.com/InoksFatih/SnakTime/internal/domain/timewindow"
)

// Service orchestrates deal activity evaluation and saved-deal state
// transitions. Every time-dependent operation takes the current instant
// explicitly so behaviour is deterministic under test.
type Service struct {
	repo Repository
}

// NewService creates a Service backed by the given saved-deal repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EvaluateActive reports whether the deal's window contains now. A deal with
// a malformed window is treated as inactive.
func (s *Service) EvaluateActive(deal catalog.Deal, now time.Time) bool {
	active, err := timewindow.InRange(timewindow.Clock(now), deal.StartTime, deal.EndTime)
	if err != nil {
		return false
	}
	return active
}

// BestActiveDeal returns the currently active deal with the highest discount
// percentage, parsed as the leading number of the discount label. Ties keep
// the earlier deal. When no deal is active it falls back to the first deal
// in the list, matching the restaurant-card badge behaviour; it returns nil
// only for an empty list.
func (s *Service) BestActiveDeal(deals []catalog.Deal, now time.Time) *catalog.Deal {
	if len(deals) == 0 {
		return nil
	}

	best := &deals[0]
	bestActive := false
	for i := range deals {
		d := &deals[i]
		if !s.EvaluateActive(*d, now) {
			continue
		}
		if !bestActive || discountPercent(d.Discount) > discountPercent(best.Discount) {
			best = d
			bestActive = true
		}
	}
	return best
}

// SaveDeal claims an active deal for the user, producing a persisted
// SavedDeal with a generated redemption code and a 24-hour expiry. It fails
// with ErrDealNotActive outside the deal's window and with ErrAlreadySaved
// when the user already holds an unredeemed claim on the same deal.
func (s *Service) SaveDeal(ctx context.Context, deal catalog.Deal, userID string, now time.Time) (*SavedDeal, error) {
	if !s.EvaluateActive(deal, now) {
		return nil, ErrDealNotActive
	}

	if _, err := s.repo.FindUnredeemed(ctx, userID, deal.ID); err == nil {
		return nil, ErrAlreadySaved
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check existing saved deal")
	}

	sd := &SavedDeal{
		ID:           uuid.New().String(),
		UserID:       userID,
		DealID:       deal.ID,
		RestaurantID: deal.RestaurantID,
		Code:         NewCode(deal.ID, userID, now),
		CreatedAt:    now,
		ExpiresAt:    now.Add(Expiry),
		IsUsed:       false,
	}
	if err := s.repo.Create(ctx, sd); err != nil {
		return nil, errors.Wrap(err, "create saved deal")
	}
	return sd, nil
}

// Redeem marks the saved deal as used. The write is conditional at the
// store, so a second redemption attempt fails with ErrAlreadyRedeemed
// instead of silently succeeding.
func (s *Service) Redeem(ctx context.Context, id string) (*SavedDeal, error) {
	sd, err := s.repo.MarkUsed(ctx, id)
	if err != nil {
		return nil, err
	}
	return sd, nil
}

// Remove deletes a saved deal.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Get returns a saved deal by its identifier.
func (s *Service) Get(ctx context.Context, id string) (*SavedDeal, error) {
	return s.repo.Get(ctx, id)
}

// List returns the user's saved deals, optionally filtered by the used flag.
func (s *Service) List(ctx context.Context, userID string, used *bool) ([]SavedDeal, error) {
	return s.repo.ListByUser(ctx, userID, used)
}

// TimeRemainingLabel renders the time left until the deal's window closes as
// "{h}h {m}m", or "{m}m" when less than an hour remains.
func (s *Service) TimeRemainingLabel(deal catalog.Deal, now time.Time) (string, error) {
	hours, minutes, err := timewindow.Remaining(now, deal.EndTime)
	if err != nil {
		return "", err
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes), nil
	}
	return fmt.Sprintf("%dm", minutes), nil
}

// discountPercent extracts the leading number from a discount label such as
// "20% OFF". Labels without a leading number rank as zero.
func discountPercent(label string) float64 {
	end := 0
	seenDot := false
	for end < len(label) {
		c := label[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(label[:end], 64)
	if err != nil {
		return 0
	}
	return v
}
