// Package handler exposes the deals API over HTTP JSON endpoints.
package handler

import (
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/InoksFatih/SnakTime/internal/domain/auth"
	"github.com/InoksFatih/SnakTime/internal/domain/catalog"
	"github.com/InoksFatih/SnakTime/internal/domain/saveddeal"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
	// Now supplies the current instant for deal activity evaluation.
	// Defaults to time.Now when nil; tests inject a fixed clock.
	Now func() time.Time
}

// Handler serves the restaurant, deal, and saved-deal endpoints, delegating
// business logic to the lifecycle service and the injected repositories.
type Handler struct {
	catalog      catalog.Repository
	lifecycle    *saveddeal.Service
	users        auth.Repository
	pepper       []byte
	imageBaseURL string
	now          func() time.Time
}

// NewHandler constructs a Handler with the required domain dependencies.
// The pepper keys the HMAC used to hash session tokens before lookup.
func NewHandler(
	cfg Config,
	catalogRepo catalog.Repository,
	lifecycle *saveddeal.Service,
	users auth.Repository,
	pepper []byte,
) *Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		catalog:      catalogRepo,
		lifecycle:    lifecycle,
		users:        users,
		pepper:       pepper,
		imageBaseURL: cfg.ImageBaseURL,
		now:          now,
	}
}

// Routes returns the API router. Saved-deal routes require a valid session
// token; catalog routes are public.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/restaurants", h.ListRestaurants)
	r.Get("/restaurants/{id}", h.GetRestaurant)
	r.Get("/restaurants/{id}/deals", h.ListRestaurantDeals)
	r.Get("/deals/{id}", h.GetDeal)

	r.Group(func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Post("/deals/{id}/save", h.SaveDeal)
		r.Get("/saved-deals", h.ListSavedDeals)
		r.Get("/saved-deals/{id}", h.GetSavedDeal)
		r.Post("/saved-deals/{id}/redeem", h.RedeemSavedDeal)
		r.Delete("/saved-deals/{id}", h.DeleteSavedDeal)
	})

	return r
}

// imageURL resolves a stored image path against the configured base URL.
// Absolute URLs pass through untouched.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" {
		return path
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
