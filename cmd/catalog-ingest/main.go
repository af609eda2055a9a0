// Command catalog-ingest imports a partner catalog export into PostgreSQL.
// Exports arrive as gzip-compressed NDJSON chunk files (catalog1.gz,
// catalog2.gz, ...) where each line is a restaurant or deal record. Chunks
// from partner feeds overlap, so deal records are deduplicated across files
// before writing.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/InoksFatih/SnakTime/internal/domain/catalog"
	"github.com/InoksFatih/SnakTime/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
)

// record is one NDJSON line of a catalog export. The kind field selects
// which of the two payloads is populated.
type record struct {
	Kind       string         `json:"kind"`
	Restaurant *restaurantRow `json:"restaurant,omitempty"`
	Deal       *dealRow       `json:"deal,omitempty"`
}

type restaurantRow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Image       string          `json:"image"`
	Rating      decimal.Decimal `json:"rating"`
	ReviewCount int             `json:"reviewCount"`
	Cuisine     string          `json:"cuisine"`
	Address     string          `json:"address"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	OpenTime    string          `json:"openTime"`
	CloseTime   string          `json:"closeTime"`
}

type dealRow struct {
	ID              string          `json:"id"`
	RestaurantID    string          `json:"restaurantId"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Discount        string          `json:"discount"`
	OriginalPrice   decimal.Decimal `json:"originalPrice"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
	StartTime       string          `json:"startTime"`
	EndTime         string          `json:"endTime"`
	Image           string          `json:"image"`
}

// chunkResult holds the parsed rows of one chunk file.
type chunkResult struct {
	restaurants []restaurantRow
	deals       []dealRow
	skipped     int
}

func main() {
	var (
		dataDir     string
		numChunks   int
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing catalogN.gz chunk files")
	flag.IntVar(&numChunks, "chunks", 3, "number of chunk files to ingest")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, numChunks, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir string, numChunks int, databaseURL string) error {
	files := make([]string, numChunks)
	for i := range numChunks {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("catalog%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("parsing chunk files", slog.Int("files", numChunks))

	results, err := parseChunks(ctx, files)
	if err != nil {
		return errors.Wrap(err, "parse chunks")
	}

	restaurants, deals, dupes := mergeChunks(results)

	slog.Info("chunks merged",
		slog.Int("restaurants", len(restaurants)),
		slog.Int("deals", len(deals)),
		slog.Int("duplicates_skipped", dupes),
	)

	if len(restaurants) == 0 && len(deals) == 0 {
		slog.Info("nothing to ingest")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := writeCatalog(ctx, repository.NewCatalogRepository(pool), restaurants, deals); err != nil {
		return errors.Wrap(err, "write catalog to database")
	}

	return nil
}

// parseChunks decompresses and parses all chunk files concurrently.
func parseChunks(ctx context.Context, files []string) ([]chunkResult, error) {
	results := make([]chunkResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(parseChunkFile(ctx, i, f, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func parseChunkFile(ctx context.Context, idx int, path string, results []chunkResult) func() error {
	return func() error {
		var res chunkResult
		var count uint64

		if err := streamGzFile(ctx, path, func(line []byte) {
			count++
			if count%progressEvery == 0 {
				slog.Info("parse progress",
					slog.Int("file", idx+1),
					slog.Uint64("lines", count),
				)
			}

			var rec record
			if err := json.Unmarshal(line, &rec); err != nil {
				res.skipped++
				return
			}

			switch rec.Kind {
			case "restaurant":
				if rec.Restaurant == nil || rec.Restaurant.ID == "" {
					res.skipped++
					return
				}
				res.restaurants = append(res.restaurants, *rec.Restaurant)
			case "deal":
				if rec.Deal == nil || rec.Deal.ID == "" {
					res.skipped++
					return
				}
				res.deals = append(res.deals, *rec.Deal)
			default:
				res.skipped++
			}
		}); err != nil {
			return errors.Wrapf(err, "parse chunk %d", idx+1)
		}

		slog.Info("parse complete",
			slog.Int("file", idx+1),
			slog.Uint64("lines", count),
			slog.Int("restaurants", len(res.restaurants)),
			slog.Int("deals", len(res.deals)),
			slog.Int("skipped", res.skipped),
		)

		results[idx] = res
		return nil
	}
}

// mergeChunks combines per-chunk rows and drops duplicate IDs. A bloom
// filter screens the common case (first sighting) cheaply; only filter hits
// fall through to the exact set, which also resolves false positives.
func mergeChunks(results []chunkResult) ([]restaurantRow, []dealRow, int) {
	var (
		restaurants []restaurantRow
		deals       []dealRow
		dupes       int
	)

	seenRestaurants := make(map[string]struct{})
	dealFilter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	seenDeals := make(map[string]struct{})

	for _, res := range results {
		for _, r := range res.restaurants {
			if _, ok := seenRestaurants[r.ID]; ok {
				dupes++
				continue
			}
			seenRestaurants[r.ID] = struct{}{}
			restaurants = append(restaurants, r)
		}

		for _, d := range res.deals {
			if dealFilter.TestString(d.ID) {
				if _, ok := seenDeals[d.ID]; ok {
					dupes++
					continue
				}
			}
			dealFilter.AddString(d.ID)
			seenDeals[d.ID] = struct{}{}
			deals = append(deals, d)
		}
	}

	return restaurants, deals, dupes
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Bytes())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writeCatalog upserts restaurants first so deal foreign keys resolve, then
// deals. Rows failing validation are skipped with a warning rather than
// aborting the whole import.
func writeCatalog(ctx context.Context, repo *repository.CatalogRepository, restaurants []restaurantRow, deals []dealRow) error {
	slog.Info("writing restaurants", slog.Int("count", len(restaurants)))

	for _, r := range restaurants {
		if err := repo.UpsertRestaurant(ctx, catalog.Restaurant{
			ID:          r.ID,
			Name:        r.Name,
			Image:       r.Image,
			Rating:      r.Rating,
			ReviewCount: r.ReviewCount,
			Cuisine:     r.Cuisine,
			Address:     r.Address,
			Coordinates: catalog.Coordinates{
				Latitude:  r.Latitude,
				Longitude: r.Longitude,
			},
			OpeningHours: catalog.OpeningHours{
				Open:  r.OpenTime,
				Close: r.CloseTime,
			},
		}); err != nil {
			return errors.Wrapf(err, "upsert restaurant %s", r.ID)
		}
	}

	slog.Info("writing deals", slog.Int("count", len(deals)))

	written := 0
	for _, d := range deals {
		deal, err := catalog.NewDeal(catalog.Deal{
			ID:            d.ID,
			RestaurantID:  d.RestaurantID,
			Title:         d.Title,
			Description:   d.Description,
			Discount:      d.Discount,
			OriginalPrice: d.OriginalPrice,
			DiscountPrice: d.DiscountedPrice,
			StartTime:     d.StartTime,
			EndTime:       d.EndTime,
			Image:         d.Image,
		})
		if err != nil {
			slog.Warn("skipping invalid deal", slog.String("id", d.ID), slog.String("error", err.Error()))
			continue
		}

		if err := repo.UpsertDeal(ctx, deal); err != nil {
			return errors.Wrapf(err, "upsert deal %s", d.ID)
		}

		written++
		if written%100 == 0 || written == len(deals) {
			slog.Info("write progress", slog.Int("written", written), slog.Int("total", len(deals)))
		}
	}

	slog.Info("deals written", slog.Int("written", written), slog.Int("invalid", len(deals)-written))

	return nil
}
