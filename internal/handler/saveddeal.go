package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/samber/lo"

	"github.com/InoksFatih/SnakTime/internal/domain/auth"
	"github.com/InoksFatih/SnakTime/internal/domain/catalog"
	"github.com/InoksFatih/SnakTime/internal/domain/saveddeal"
)

type savedDealResponse struct {
	ID           string    `json:"id"`
	DealID       string    `json:"dealId"`
	RestaurantID string    `json:"restaurantId"`
	Code         string    `json:"code"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	IsUsed       bool      `json:"isUsed"`
	IsExpired    bool      `json:"isExpired"`
}

// SaveDeal claims the deal for the authenticated user and returns the new
// saved deal with its redemption code.
func (h *Handler) SaveDeal(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
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

	now := h.now()
	sd, err := h.lifecycle.SaveDeal(r.Context(), *deal, user.ID, now)
	if err != nil {
		switch {
		case errors.Is(err, saveddeal.ErrDealNotActive):
			respondError(w, r, http.StatusUnprocessableEntity, "deal is not active right now")
		case errors.Is(err, saveddeal.ErrAlreadySaved):
			respondError(w, r, http.StatusConflict, "deal already saved")
		default:
			respondInternal(w, r, err)
		}
		return
	}

	respondJSON(w, r, http.StatusCreated, h.toSavedDealResponse(*sd, now))
}

// ListSavedDeals returns the authenticated user's saved deals, newest first.
// The optional ?used=true|false query filters by redemption state.
func (h *Handler) ListSavedDeals(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var used *bool
	if v := r.URL.Query().Get("used"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "used must be true or false")
			return
		}
		used = &b
	}

	deals, err := h.lifecycle.List(r.Context(), user.ID, used)
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	now := h.now()
	resp := lo.Map(deals, func(sd saveddeal.SavedDeal, _ int) savedDealResponse {
		return h.toSavedDealResponse(sd, now)
	})
	respondJSON(w, r, http.StatusOK, resp)
}

// GetSavedDeal returns one of the authenticated user's saved deals. A deal
// owned by another user reads as not found.
func (h *Handler) GetSavedDeal(w http.ResponseWriter, r *http.Request) {
	sd, ok := h.ownedSavedDeal(w, r)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, h.toSavedDealResponse(*sd, h.now()))
}

// RedeemSavedDeal marks the saved deal as used. A second attempt fails with
// 409 rather than silently succeeding.
func (h *Handler) RedeemSavedDeal(w http.ResponseWriter, r *http.Request) {
	sd, ok := h.ownedSavedDeal(w, r)
	if !ok {
		return
	}

	redeemed, err := h.lifecycle.Redeem(r.Context(), sd.ID)
	if err != nil {
		switch {
		case errors.Is(err, saveddeal.ErrAlreadyRedeemed):
			respondError(w, r, http.StatusConflict, "deal already redeemed")
		case errors.Is(err, saveddeal.ErrNotFound):
			respondError(w, r, http.StatusNotFound, "saved deal not found")
		default:
			respondInternal(w, r, err)
		}
		return
	}

	respondJSON(w, r, http.StatusOK, h.toSavedDealResponse(*redeemed, h.now()))
}

// DeleteSavedDeal removes one of the authenticated user's saved deals.
func (h *Handler) DeleteSavedDeal(w http.ResponseWriter, r *http.Request) {
	sd, ok := h.ownedSavedDeal(w, r)
	if !ok {
		return
	}

	if err := h.lifecycle.Remove(r.Context(), sd.ID); err != nil {
		if errors.Is(err, saveddeal.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "saved deal not found")
			return
		}
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

// ownedSavedDeal loads the saved deal from the URL and verifies it belongs
// to the authenticated user, writing the error response itself when not.
func (h *Handler) ownedSavedDeal(w http.ResponseWriter, r *http.Request) (*saveddeal.SavedDeal, bool) {
	user := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	sd, err := h.lifecycle.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, saveddeal.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "saved deal not found")
			return nil, false
		}
		respondInternal(w, r, err)
		return nil, false
	}
	if sd.UserID != user.ID {
		respondError(w, r, http.StatusNotFound, "saved deal not found")
		return nil, false
	}
	return sd, true
}

func (h *Handler) toSavedDealResponse(sd saveddeal.SavedDeal, now time.Time) savedDealResponse {
	return savedDealResponse{
		ID:           sd.ID,
		DealID:       sd.DealID,
		RestaurantID: sd.RestaurantID,
		Code:         sd.Code,
		CreatedAt:    sd.CreatedAt,
		ExpiresAt:    sd.ExpiresAt,
		IsUsed:       sd.IsUsed,
		IsExpired:    sd.Expired(now),
	}
}
