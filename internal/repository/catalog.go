package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/InoksFatih/SnakTime/internal/domain/catalog"
)

const (
	listRestaurantsSQL = `SELECT id, name, image, rating, review_count, cuisine, address,
		latitude, longitude, open_time, close_time
		FROM restaurants ORDER BY id`

	getRestaurantSQL = `SELECT id, name, image, rating, review_count, cuisine, address,
		latitude, longitude, open_time, close_time
		FROM restaurants WHERE id = $1`

	listAllDealsSQL = `SELECT id, restaurant_id, title, description, discount,
		original_price, discounted_price, start_time, end_time, image
		FROM deals ORDER BY restaurant_id, id`

	getDealSQL = `SELECT id, restaurant_id, title, description, discount,
		original_price, discounted_price, start_time, end_time, image
		FROM deals WHERE id = $1`

	listDealsByRestaurantSQL = `SELECT id, restaurant_id, title, description, discount,
		original_price, discounted_price, start_time, end_time, image
		FROM deals WHERE restaurant_id = $1 ORDER BY id`

	insertRestaurantSQL = `INSERT INTO restaurants (id, name, image, rating, review_count, cuisine,
		address, latitude, longitude, open_time, close_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, image = EXCLUDED.image, rating = EXCLUDED.rating,
			review_count = EXCLUDED.review_count, cuisine = EXCLUDED.cuisine,
			address = EXCLUDED.address, latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude, open_time = EXCLUDED.open_time,
			close_time = EXCLUDED.close_time`

	insertDealSQL = `INSERT INTO deals (id, restaurant_id, title, description, discount,
		original_price, discounted_price, start_time, end_time, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			restaurant_id = EXCLUDED.restaurant_id, title = EXCLUDED.title,
			description = EXCLUDED.description, discount = EXCLUDED.discount,
			original_price = EXCLUDED.original_price,
			discounted_price = EXCLUDED.discounted_price,
			start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
			image = EXCLUDED.image`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListRestaurants returns all restaurants with their deals attached, ordered
// by restaurant ID.
func (r *CatalogRepository) ListRestaurants(ctx context.Context) ([]catalog.Restaurant, error) {
	rows, err := r.pool.Query(ctx, listRestaurantsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing restaurants: %w", err)
	}
	restaurants, err := pgx.CollectRows(rows, scanRestaurant)
	if err != nil {
		return nil, fmt.Errorf("listing restaurants: %w", err)
	}

	dealRows, err := r.pool.Query(ctx, listAllDealsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing deals: %w", err)
	}
	deals, err := pgx.CollectRows(dealRows, scanDeal)
	if err != nil {
		return nil, fmt.Errorf("listing deals: %w", err)
	}

	byRestaurant := make(map[string][]catalog.Deal, len(restaurants))
	for _, d := range deals {
		byRestaurant[d.RestaurantID] = append(byRestaurant[d.RestaurantID], d)
	}
	for i := range restaurants {
		restaurants[i].Deals = byRestaurant[restaurants[i].ID]
	}
	return restaurants, nil
}

// GetRestaurant returns a single restaurant with its deals.
// Returns catalog.ErrRestaurantNotFound when no such restaurant exists.
func (r *CatalogRepository) GetRestaurant(ctx context.Context, id string) (*catalog.Restaurant, error) {
	rows, err := r.pool.Query(ctx, getRestaurantSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting restaurant %q: %w", id, err)
	}

	rest, err := pgx.CollectExactlyOneRow(rows, scanRestaurant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("getting restaurant %q: %w", id, err)
	}

	deals, err := r.ListDealsByRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	rest.Deals = deals
	return &rest, nil
}

// GetDeal returns a single deal by its identifier.
// Returns catalog.ErrDealNotFound when no such deal exists.
func (r *CatalogRepository) GetDeal(ctx context.Context, id string) (*catalog.Deal, error) {
	rows, err := r.pool.Query(ctx, getDealSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting deal %q: %w", id, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, scanDeal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrDealNotFound
		}
		return nil, fmt.Errorf("getting deal %q: %w", id, err)
	}
	return &d, nil
}

// ListDealsByRestaurant returns the deals owned by the given restaurant,
// ordered by deal ID.
func (r *CatalogRepository) ListDealsByRestaurant(ctx context.Context, restaurantID string) ([]catalog.Deal, error) {
	rows, err := r.pool.Query(ctx, listDealsByRestaurantSQL, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("listing deals for restaurant %q: %w", restaurantID, err)
	}
	return pgx.CollectRows(rows, scanDeal)
}

// UpsertRestaurant inserts or updates a restaurant row (deals excluded).
// Used by the seed and ingest tools.
func (r *CatalogRepository) UpsertRestaurant(ctx context.Context, rest catalog.Restaurant) error {
	_, err := r.pool.Exec(ctx, insertRestaurantSQL,
		rest.ID, rest.Name, rest.Image, rest.Rating, rest.ReviewCount, rest.Cuisine,
		rest.Address, rest.Coordinates.Latitude, rest.Coordinates.Longitude,
		rest.OpeningHours.Open, rest.OpeningHours.Close,
	)
	if err != nil {
		return fmt.Errorf("upserting restaurant %q: %w", rest.ID, err)
	}
	return nil
}

// UpsertDeal inserts or updates a deal row. Used by the seed and ingest tools.
func (r *CatalogRepository) UpsertDeal(ctx context.Context, d catalog.Deal) error {
	_, err := r.pool.Exec(ctx, insertDealSQL,
		d.ID, d.RestaurantID, d.Title, d.Description, d.Discount,
		d.OriginalPrice, d.DiscountPrice, d.StartTime, d.EndTime, d.Image,
	)
	if err != nil {
		return fmt.Errorf("upserting deal %q: %w", d.ID, err)
	}
	return nil
}

func scanRestaurant(row pgx.CollectableRow) (catalog.Restaurant, error) {
	var rest catalog.Restaurant
	err := row.Scan(
		&rest.ID, &rest.Name, &rest.Image, &rest.Rating, &rest.ReviewCount,
		&rest.Cuisine, &rest.Address,
		&rest.Coordinates.Latitude, &rest.Coordinates.Longitude,
		&rest.OpeningHours.Open, &rest.OpeningHours.Close,
	)
	return rest, err
}

func scanDeal(row pgx.CollectableRow) (catalog.Deal, error) {
	var d catalog.Deal
	err := row.Scan(
		&d.ID, &d.RestaurantID, &d.Title, &d.Description, &d.Discount,
		&d.OriginalPrice, &d.DiscountPrice, &d.StartTime, &d.EndTime, &d.Image,
	)
	return d, err
}
