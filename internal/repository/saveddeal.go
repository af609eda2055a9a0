package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/InoksFatih/SnakTime/internal/domain/saveddeal"
)

const (
	savedDealColumns = `id, user_id, deal_id, restaurant_id, code, created_at, expires_at, is_used`

	getSavedDealSQL = `SELECT ` + savedDealColumns + ` FROM saved_deals WHERE id = $1`

	listSavedDealsSQL = `SELECT ` + savedDealColumns + ` FROM saved_deals
		WHERE user_id = $1 ORDER BY created_at DESC`

	listSavedDealsByUsedSQL = `SELECT ` + savedDealColumns + ` FROM saved_deals
		WHERE user_id = $1 AND is_used = $2 ORDER BY created_at DESC`

	findUnredeemedSQL = `SELECT ` + savedDealColumns + ` FROM saved_deals
		WHERE user_id = $1 AND deal_id = $2 AND NOT is_used`

	createSavedDealSQL = `INSERT INTO saved_deals
		(id, user_id, deal_id, restaurant_id, code, created_at, expires_at, is_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	// The WHERE clause makes redemption a single conditional write: of two
	// concurrent attempts, exactly one matches the unredeemed row.
	markUsedSQL = `UPDATE saved_deals SET is_used = TRUE
		WHERE id = $1 AND NOT is_used
		RETURNING ` + savedDealColumns

	savedDealExistsSQL = `SELECT EXISTS (SELECT 1 FROM saved_deals WHERE id = $1)`

	deleteSavedDealSQL = `DELETE FROM saved_deals WHERE id = $1`
)

var _ saveddeal.Repository = (*SavedDealRepository)(nil)

// SavedDealRepository implements saveddeal.Repository backed by PostgreSQL.
type SavedDealRepository struct {
	pool *pgxpool.Pool
}

// NewSavedDealRepository returns a SavedDealRepository that uses the given pool.
func NewSavedDealRepository(pool *pgxpool.Pool) *SavedDealRepository {
	return &SavedDealRepository{pool: pool}
}

// Get returns a saved deal by its identifier.
// Returns saveddeal.ErrNotFound when no such record exists.
func (r *SavedDealRepository) Get(ctx context.Context, id string) (*saveddeal.SavedDeal, error) {
	rows, err := r.pool.Query(ctx, getSavedDealSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting saved deal %q: %w", id, err)
	}

	sd, err := pgx.CollectExactlyOneRow(rows, scanSavedDeal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, saveddeal.ErrNotFound
		}
		return nil, fmt.Errorf("getting saved deal %q: %w", id, err)
	}
	return &sd, nil
}

// ListByUser returns the user's saved deals newest first, optionally
// filtered by the used flag.
func (r *SavedDealRepository) ListByUser(ctx context.Context, userID string, used *bool) ([]saveddeal.SavedDeal, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if used == nil {
		rows, err = r.pool.Query(ctx, listSavedDealsSQL, userID)
	} else {
		rows, err = r.pool.Query(ctx, listSavedDealsByUsedSQL, userID, *used)
	}
	if err != nil {
		return nil, fmt.Errorf("listing saved deals for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanSavedDeal)
}

// FindUnredeemed returns the user's unredeemed saved deal for the given
// catalog deal, or saveddeal.ErrNotFound when there is none.
func (r *SavedDealRepository) FindUnredeemed(ctx context.Context, userID, dealID string) (*saveddeal.SavedDeal, error) {
	rows, err := r.pool.Query(ctx, findUnredeemedSQL, userID, dealID)
	if err != nil {
		return nil, fmt.Errorf("finding unredeemed deal %q for user %q: %w", dealID, userID, err)
	}

	sd, err := pgx.CollectExactlyOneRow(rows, scanSavedDeal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, saveddeal.ErrNotFound
		}
		return nil, fmt.Errorf("finding unredeemed deal %q for user %q: %w", dealID, userID, err)
	}
	return &sd, nil
}

// Create persists a new saved deal. A unique-violation on the partial index
// (one unredeemed claim per user and deal) maps to saveddeal.ErrAlreadySaved.
func (r *SavedDealRepository) Create(ctx context.Context, sd *saveddeal.SavedDeal) error {
	_, err := r.pool.Exec(ctx, createSavedDealSQL,
		sd.ID, sd.UserID, sd.DealID, sd.RestaurantID, sd.Code,
		sd.CreatedAt, sd.ExpiresAt, sd.IsUsed,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return saveddeal.ErrAlreadySaved
		}
		return fmt.Errorf("creating saved deal %q: %w", sd.ID, err)
	}
	return nil
}

// MarkUsed flips is_used on an unredeemed saved deal and returns the updated
// record. Returns saveddeal.ErrAlreadyRedeemed when the record exists but is
// already used, and saveddeal.ErrNotFound when it does not exist.
func (r *SavedDealRepository) MarkUsed(ctx context.Context, id string) (*saveddeal.SavedDeal, error) {
	rows, err := r.pool.Query(ctx, markUsedSQL, id)
	if err != nil {
		return nil, fmt.Errorf("redeeming saved deal %q: %w", id, err)
	}

	sd, err := pgx.CollectExactlyOneRow(rows, scanSavedDeal)
	if err == nil {
		return &sd, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("redeeming saved deal %q: %w", id, err)
	}

	// No row matched: distinguish already-redeemed from missing.
	var exists bool
	if err := r.pool.QueryRow(ctx, savedDealExistsSQL, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("redeeming saved deal %q: %w", id, err)
	}
	if exists {
		return nil, saveddeal.ErrAlreadyRedeemed
	}
	return nil, saveddeal.ErrNotFound
}

// Delete removes a saved deal. Deleting a missing record returns
// saveddeal.ErrNotFound.
func (r *SavedDealRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteSavedDealSQL, id)
	if err != nil {
		return fmt.Errorf("deleting saved deal %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return saveddeal.ErrNotFound
	}
	return nil
}

func scanSavedDeal(row pgx.CollectableRow) (saveddeal.SavedDeal, error) {
	var sd saveddeal.SavedDeal
	err := row.Scan(
		&sd.ID, &sd.UserID, &sd.DealID, &sd.RestaurantID, &sd.Code,
		&sd.CreatedAt, &sd.ExpiresAt, &sd.IsUsed,
	)
	return sd, err
}
