package repository_test

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/InoksFatih/SnakTime/internal/domain/auth"
	"github.com/InoksFatih/SnakTime/internal/domain/catalog"
	"github.com/InoksFatih/SnakTime/internal/repository"
)

// startPostgres launches a disposable PostgreSQL container and returns its
// connection string.
func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("snaktime"),
		postgres.WithUsername("snak"),
		postgres.WithPassword("snak"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("starting postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", fmt.Errorf("postgres connection string: %w", err)
	}

	return container, connStr, nil
}

// newTestPool connects to the container and applies the schema.
func newTestPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	pool, err := repository.NewPool(ctx, connStr)
	if err != nil {
		return nil, err
	}
	if err := repository.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// --- Fake domain fixtures ---

func fakeRestaurant() catalog.Restaurant {
	return catalog.Restaurant{
		ID:          gofakeit.UUID(),
		Name:        gofakeit.Company(),
		Image:       "restaurants/" + gofakeit.UUID() + ".jpg",
		Rating:      decimal.NewFromFloat(gofakeit.Float64Range(1, 5)).Round(1),
		ReviewCount: gofakeit.Number(1, 2000),
		Cuisine:     gofakeit.RandomString([]string{"American", "Japanese", "Italian", "Mexican"}),
		Address:     gofakeit.Street(),
		Coordinates: catalog.Coordinates{
			Latitude:  gofakeit.Latitude(),
			Longitude: gofakeit.Longitude(),
		},
		OpeningHours: catalog.OpeningHours{
			Open:  "08:00",
			Close: "22:00",
		},
	}
}

func fakeDeal(restaurantID string) catalog.Deal {
	original := decimal.NewFromFloat(gofakeit.Float64Range(10, 50)).Round(2)
	return catalog.Deal{
		ID:            gofakeit.UUID(),
		RestaurantID:  restaurantID,
		Title:         gofakeit.ProductName(),
		Description:   gofakeit.Sentence(6),
		Discount:      "20% OFF",
		OriginalPrice: original,
		DiscountPrice: original.Mul(decimal.RequireFromString("0.8")).Round(2),
		StartTime:     "11:00",
		EndTime:       "14:00",
		Image:         "deals/" + gofakeit.UUID() + ".jpg",
	}
}

func fakeUser() auth.UserInfo {
	return auth.UserInfo{
		ID:        gofakeit.UUID(),
		Name:      gofakeit.Name(),
		Email:     gofakeit.Email(),
		Phone:     gofakeit.Phone(),
		TokenHash: gofakeit.UUID(),
	}
}
