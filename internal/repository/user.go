package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/InoksFatih/SnakTime/internal/domain/auth"
)

const (
	findUserByTokenHashSQL = `SELECT id, name, email, phone, token_hash
		FROM users WHERE token_hash = $1 AND active = TRUE`

	upsertUserSQL = `INSERT INTO users (id, name, email, phone, token_hash)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, email = EXCLUDED.email,
			phone = EXCLUDED.phone, token_hash = EXCLUDED.token_hash`
)

var _ auth.Repository = (*UserRepository)(nil)

// UserRepository provides user session lookups backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByTokenHash looks up an active user by the HMAC-SHA256 hash of their
// session token. Returns auth.ErrUnauthorized when no matching user exists.
func (r *UserRepository) FindByTokenHash(ctx context.Context, hash string) (*auth.UserInfo, error) {
	var u auth.UserInfo
	err := r.pool.QueryRow(ctx, findUserByTokenHashSQL, hash).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.TokenHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUnauthorized
		}
		return nil, fmt.Errorf("finding user by token hash: %w", err)
	}
	return &u, nil
}

// Upsert inserts or updates a user row. Used by the seed tool.
func (r *UserRepository) Upsert(ctx context.Context, u auth.UserInfo) error {
	_, err := r.pool.Exec(ctx, upsertUserSQL, u.ID, u.Name, u.Email, u.Phone, u.TokenHash)
	if err != nil {
		return fmt.Errorf("upserting user %q: %w", u.ID, err)
	}
	return nil
}
