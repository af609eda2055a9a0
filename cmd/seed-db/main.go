// Command seed-db loads the restaurant catalog from a JSON file into
// PostgreSQL and provisions a demo user so the API can be exercised locally.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/InoksFatih/SnakTime/internal/domain/auth"
	"github.com/InoksFatih/SnakTime/internal/domain/catalog"
	"github.com/InoksFatih/SnakTime/internal/handler"
	"github.com/InoksFatih/SnakTime/internal/repository"
)

type dealJSON struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Discount        string          `json:"discount"`
	OriginalPrice   decimal.Decimal `json:"originalPrice"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
	StartTime       string          `json:"startTime"`
	EndTime         string          `json:"endTime"`
	Image           string          `json:"image"`
}

type restaurantJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Image       string          `json:"image"`
	Rating      decimal.Decimal `json:"rating"`
	ReviewCount int             `json:"reviewCount"`
	Cuisine     string          `json:"cuisine"`
	Address     string          `json:"address"`
	Coordinates struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coordinates"`
	OpeningHours struct {
		Open  string `json:"open"`
		Close string `json:"close"`
	} `json:"openingHours"`
	Deals []dealJSON `json:"deals"`
}

func main() {
	var (
		databaseURL     string
		restaurantsFile string
		userToken       string
		tokenPepper     string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&restaurantsFile, "restaurants-file", "db/seed/restaurants.json", "path to restaurants JSON file")
	flag.StringVar(&userToken, "user-token", "", "session token for the demo user (or SNAK_SEED_TOKEN env)")
	flag.StringVar(&tokenPepper, "token-pepper", "", "HMAC pepper for token hashing (or SNAK_TOKEN_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if userToken == "" {
		userToken = os.Getenv("SNAK_SEED_TOKEN")
	}
	if userToken == "" {
		slog.Error("user token is required: set --user-token or SNAK_SEED_TOKEN")
		os.Exit(1)
	}
	if tokenPepper == "" {
		tokenPepper = os.Getenv("SNAK_TOKEN_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, restaurantsFile, userToken, tokenPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, restaurantsFile, userToken, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedRestaurants(ctx, repository.NewCatalogRepository(pool), restaurantsFile); err != nil {
		return errors.Wrap(err, "seed restaurants")
	}

	if err := seedDemoUser(ctx, repository.NewUserRepository(pool), userToken, pepper); err != nil {
		return errors.Wrap(err, "seed demo user")
	}

	return nil
}

func seedRestaurants(ctx context.Context, repo *repository.CatalogRepository, restaurantsFile string) error {
	slog.Info("reading restaurants file", slog.String("path", restaurantsFile))

	data, err := os.ReadFile(restaurantsFile)
	if err != nil {
		return errors.Wrap(err, "read restaurants file")
	}

	var restaurants []restaurantJSON
	if err := json.Unmarshal(data, &restaurants); err != nil {
		return errors.Wrap(err, "parse restaurants JSON")
	}

	slog.Info("upserting restaurants", slog.Int("count", len(restaurants)))

	for _, rj := range restaurants {
		rest := catalog.Restaurant{
			ID:          rj.ID,
			Name:        rj.Name,
			Image:       rj.Image,
			Rating:      rj.Rating,
			ReviewCount: rj.ReviewCount,
			Cuisine:     rj.Cuisine,
			Address:     rj.Address,
			Coordinates: catalog.Coordinates{
				Latitude:  rj.Coordinates.Latitude,
				Longitude: rj.Coordinates.Longitude,
			},
			OpeningHours: catalog.OpeningHours{
				Open:  rj.OpeningHours.Open,
				Close: rj.OpeningHours.Close,
			},
		}
		if err := repo.UpsertRestaurant(ctx, rest); err != nil {
			return errors.Wrapf(err, "upsert restaurant %s", rj.ID)
		}

		slog.Info("upserted restaurant", slog.String("id", rj.ID), slog.String("name", rj.Name))

		for _, dj := range rj.Deals {
			deal, err := catalog.NewDeal(catalog.Deal{
				ID:            dj.ID,
				RestaurantID:  rj.ID,
				Title:         dj.Title,
				Description:   dj.Description,
				Discount:      dj.Discount,
				OriginalPrice: dj.OriginalPrice,
				DiscountPrice: dj.DiscountedPrice,
				StartTime:     dj.StartTime,
				EndTime:       dj.EndTime,
				Image:         dj.Image,
			})
			if err != nil {
				return errors.Wrapf(err, "validate deal %s", dj.ID)
			}
			if err := repo.UpsertDeal(ctx, deal); err != nil {
				return errors.Wrapf(err, "upsert deal %s", dj.ID)
			}

			slog.Info("upserted deal", slog.String("id", dj.ID), slog.String("title", dj.Title))
		}
	}

	return nil
}

func seedDemoUser(ctx context.Context, repo *repository.UserRepository, token, pepper string) error {
	slog.Info("seeding demo user")

	if err := repo.Upsert(ctx, auth.UserInfo{
		ID:        "demo",
		Name:      "Demo User",
		Email:     "demo@snaktime.app",
		Phone:     "+15555550100",
		TokenHash: handler.TokenHash(token, []byte(pepper)),
	}); err != nil {
		return errors.Wrap(err, "upsert demo user")
	}

	slog.Info("upserted demo user", slog.String("id", "demo"))

	return nil
}
