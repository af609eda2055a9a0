// Package auth provides bearer-token session identity for API requests.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned when a request carries no valid session token.
var ErrUnauthorized = errors.New("unauthorized")

// UserInfo holds the identity data for an authenticated user. The user ID is
// stamped into generated redemption codes.
type UserInfo struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	TokenHash string
}

// Repository provides lookup of users by the HMAC-SHA256 hash of their
// session token.
type Repository interface {
	FindByTokenHash(ctx context.Context, hash string) (*UserInfo, error)
}

// userKey is the context key for the authenticated user.
type userKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *UserInfo) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext extracts the authenticated user from the context, or nil
// when the request was not authenticated.
func UserFromContext(ctx context.Context) *UserInfo {
	u, _ := ctx.Value(userKey{}).(*UserInfo)
	return u
}
