// Package saveddeal implements the deal lifecycle: deciding whether a deal
// is currently active, claiming an active deal as a redeemable saved deal,
// and the one-way active -> redeemed transition.
package saveddeal

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested saved deal does not exist.
	ErrNotFound = errors.New("saved deal not found")
	// ErrDealNotActive is returned when saving a deal outside its active window.
	ErrDealNotActive = errors.New("deal is not active")
	// ErrAlreadySaved is returned when the user already holds an unredeemed
	// saved deal for the same catalog deal.
	ErrAlreadySaved = errors.New("deal already saved")
	// ErrAlreadyRedeemed is returned when redeeming a saved deal that has
	// already been used.
	ErrAlreadyRedeemed = errors.New("deal already redeemed")
)

// Expiry is how long a saved deal stays redeemable after it is claimed.
const Expiry = 24 * time.Hour

// codePrefix namespaces generated redemption codes.
const codePrefix = "SNAK"

// SavedDeal is a user's claim on a catalog deal, carrying an opaque
// redemption code and a fixed expiry. IsUsed flips false -> true exactly
// once; redeemed is terminal.
type SavedDeal struct {
	ID           string
	UserID       string
	DealID       string
	RestaurantID string
	Code         string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	IsUsed       bool
}

// Redeem returns a copy of the saved deal marked as used. It fails with
// ErrAlreadyRedeemed when the deal has already been used; the transition
// never reverses. Persisting the returned value is the caller's concern.
func (s SavedDeal) Redeem() (SavedDeal, error) {
	if s.IsUsed {
		return SavedDeal{}, ErrAlreadyRedeemed
	}
	s.IsUsed = true
	return s, nil
}

// Expired reports whether the saved deal's redemption window has passed.
func (s SavedDeal) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewCode builds an opaque display-only redemption code. The format carries
// the deal, the user, and the claim instant plus a random suffix; it is not
// guaranteed unique and carries no cryptographic weight.
func NewCode(dealID, userID string, now time.Time) string {
	suffix := make([]byte, 8)
	for i := range suffix {
		suffix[i] = suffixAlphabet[rand.IntN(len(suffixAlphabet))]
	}
	return fmt.Sprintf("%s-%s-%s-%d-%s", codePrefix, dealID, userID, now.UnixMilli(), suffix)
}

// Repository defines persistence operations for saved deals. Implementations
// must make MarkUsed a single conditional write so that two concurrent
// redemption attempts cannot both succeed.
type Repository interface {
	Get(ctx context.Context, id string) (*SavedDeal, error)
	// ListByUser returns the user's saved deals, optionally filtered by the
	// used flag, newest first.
	ListByUser(ctx context.Context, userID string, used *bool) ([]SavedDeal, error)
	// FindUnredeemed returns the user's unredeemed saved deal for the given
	// catalog deal, or ErrNotFound when there is none.
	FindUnredeemed(ctx context.Context, userID, dealID string) (*SavedDeal, error)
	Create(ctx context.Context, sd *SavedDeal) error
	// MarkUsed flips is_used for an unredeemed saved deal and returns the
	// updated record. It returns ErrAlreadyRedeemed when the deal exists but
	// was already used, and ErrNotFound when it does not exist.
	MarkUsed(ctx context.Context, id string) (*SavedDeal, error)
	Delete(ctx context.Context, id string) error
}
