package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/InoksFatih/SnakTime/internal/domain/auth"
)

// Authenticate is a middleware authenticating requests via bearer session
// tokens. The token is HMAC-SHA256 hashed with the server pepper, looked up
// in the user repository, and compared in constant time; the resolved user
// is stored in the request context.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, r, http.StatusUnauthorized, "missing session token")
			return
		}

		mac := hmac.New(sha256.New, h.pepper)
		mac.Write([]byte(token))
		hash := mac.Sum(nil)
		hexHash := hex.EncodeToString(hash)

		user, err := h.users.FindByTokenHash(r.Context(), hexHash)
		if err != nil {
			respondError(w, r, http.StatusUnauthorized, "invalid session token")
			return
		}

		// Constant-time comparison guards against a repository returning a
		// stale or mismatched row.
		stored, err := hex.DecodeString(user.TokenHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			respondError(w, r, http.StatusUnauthorized, "invalid session token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

// bearerToken extracts the token from the Authorization header, accepting
// both "Bearer <token>" and a bare token value.
func bearerToken(r *http.Request) string {
	v := r.Header.Get("Authorization")
	if v == "" {
		return ""
	}
	if tok, ok := strings.CutPrefix(v, "Bearer "); ok {
		return tok
	}
	return v
}

// TokenHash computes the hex HMAC-SHA256 of a session token under the given
// pepper. Shared with the seed tool so stored hashes line up with lookups.
func TokenHash(token string, pepper []byte) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
