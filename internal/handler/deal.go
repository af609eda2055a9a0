package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/InoksFatih/SnakTime/internal/domain/catalog"
	"github.com/InoksFatih/SnakTime/internal/domain/timewindow"
)

type dealResponse struct {
	ID              string  `json:"id"`
	RestaurantID    string  `json:"restaurantId"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Discount        string  `json:"discount"`
	OriginalPrice   float64 `json:"originalPrice"`
	DiscountedPrice float64 `json:"discountedPrice"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	StartDisplay    string  `json:"startDisplay"`
	EndDisplay      string  `json:"endDisplay"`
	Image           string  `json:"image"`
	IsActive        bool    `json:"isActive"`
	// TimeRemaining is the "{h}h {m}m" label until the window closes,
	// present only while the deal is active.
	TimeRemaining string `json:"timeRemaining,omitempty"`
}

// GetDeal returns a single deal annotated with its current activity and
// remaining time.
func (h *Handler) GetDeal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deal, err := h.catalog.GetDeal(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrDealNotFound) {
			respondError(w, r, http.StatusNotFound, "deal not found")
			return
		}
		respondInternal(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, h.toDealResponse(*deal))
}

func (h *Handler) toDealResponse(d catalog.Deal) dealResponse {
	now := h.now()
	resp := dealResponse{
		ID:              d.ID,
		RestaurantID:    d.RestaurantID,
		Title:           d.Title,
		Description:     d.Description,
		Discount:        d.Discount,
		OriginalPrice:   d.OriginalPrice.InexactFloat64(),
		DiscountedPrice: d.DiscountPrice.InexactFloat64(),
		StartTime:       d.StartTime,
		EndTime:         d.EndTime,
		Image:           h.imageURL(d.Image),
		IsActive:        h.lifecycle.EvaluateActive(d, now),
	}

	// Display forms and the remaining label are best-effort: a malformed
	// window already renders the deal inactive.
	if s, err := timewindow.Format12Hour(d.StartTime); err == nil {
		resp.StartDisplay = s
	}
	if e, err := timewindow.Format12Hour(d.EndTime); err == nil {
		resp.EndDisplay = e
	}
	if resp.IsActive {
		if label, err := h.lifecycle.TimeRemainingLabel(d, now); err == nil {
			resp.TimeRemaining = label
		}
	}
	return resp
}
