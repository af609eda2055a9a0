package repository_test

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"go.uber.org/goleak"

	"github.com/InoksFatih/SnakTime/internal/domain/catalog"
	"github.com/InoksFatih/SnakTime/internal/repository"
)

type catalogRepositorySuite struct {
	suite.Suite

	pool      *pgxpool.Pool
	repo      *repository.CatalogRepository
	container testcontainers.Container
}

func TestCatalogRepositorySuite(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("github.com/testcontainers/testcontainers-go.(*Reaper).connect.func1"))

	suite.Run(t, new(catalogRepositorySuite))
}

func (suite *catalogRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	var (
		connStr string
		err     error
	)

	suite.container, connStr, err = startPostgres(ctx)
	suite.Require().NoError(err)

	suite.pool, err = newTestPool(ctx, connStr)
	suite.Require().NoError(err)

	suite.repo = repository.NewCatalogRepository(suite.pool)
}

func (suite *catalogRepositorySuite) TearDownSuite() {
	ctx := suite.T().Context()

	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(ctx))
	}
}

func (suite *catalogRepositorySuite) TestUpsertAndGetRestaurant() {
	t := suite.T()
	ctx := t.Context()

	rest := fakeRestaurant()
	require.NoError(t, suite.repo.UpsertRestaurant(ctx, rest))

	got, err := suite.repo.GetRestaurant(ctx, rest.ID)
	require.NoError(t, err)

	suite.Equal(rest.ID, got.ID)
	suite.Equal(rest.Name, got.Name)
	suite.True(rest.Rating.Equal(got.Rating))
	suite.Equal(rest.Coordinates, got.Coordinates)
	suite.Equal(rest.OpeningHours, got.OpeningHours)
	suite.Empty(got.Deals)
}

func (suite *catalogRepositorySuite) TestUpsertRestaurant_UpdatesExisting() {
	t := suite.T()
	ctx := t.Context()

	rest := fakeRestaurant()
	require.NoError(t, suite.repo.UpsertRestaurant(ctx, rest))

	rest.Name = "Renamed " + rest.Name
	rest.ReviewCount++
	require.NoError(t, suite.repo.UpsertRestaurant(ctx, rest))

	got, err := suite.repo.GetRestaurant(ctx, rest.ID)
	require.NoError(t, err)
	suite.Equal(rest.Name, got.Name)
	suite.Equal(rest.ReviewCount, got.ReviewCount)
}

func (suite *catalogRepositorySuite) TestGetRestaurant_NotFound() {
	_, err := suite.repo.GetRestaurant(suite.T().Context(), "missing")
	suite.ErrorIs(err, catalog.ErrRestaurantNotFound)
}

func (suite *catalogRepositorySuite) TestUpsertAndGetDeal() {
	t := suite.T()
	ctx := t.Context()

	rest := fakeRestaurant()
	require.NoError(t, suite.repo.UpsertRestaurant(ctx, rest))

	deal := fakeDeal(rest.ID)
	require.NoError(t, suite.repo.UpsertDeal(ctx, deal))

	got, err := suite.repo.GetDeal(ctx, deal.ID)
	require.NoError(t, err)

	suite.Equal(deal.ID, got.ID)
	suite.Equal(deal.RestaurantID, got.RestaurantID)
	suite.True(deal.OriginalPrice.Equal(got.OriginalPrice))
	suite.True(deal.DiscountPrice.Equal(got.DiscountPrice))
	suite.Equal(deal.StartTime, got.StartTime)
	suite.Equal(deal.EndTime, got.EndTime)
}

func (suite *catalogRepositorySuite) TestGetDeal_NotFound() {
	_, err := suite.repo.GetDeal(suite.T().Context(), "missing")
	suite.ErrorIs(err, catalog.ErrDealNotFound)
}

func (suite *catalogRepositorySuite) TestListDealsByRestaurant() {
	t := suite.T()
	ctx := t.Context()

	rest := fakeRestaurant()
	require.NoError(t, suite.repo.UpsertRestaurant(ctx, rest))

	deal1 := fakeDeal(rest.ID)
	deal2 := fakeDeal(rest.ID)
	require.NoError(t, suite.repo.UpsertDeal(ctx, deal1))
	require.NoError(t, suite.repo.UpsertDeal(ctx, deal2))

	deals, err := suite.repo.ListDealsByRestaurant(ctx, rest.ID)
	require.NoError(t, err)
	require.Len(t, deals, 2)

	ids := lo.Map(deals, func(d catalog.Deal, _ int) string { return d.ID })
	suite.ElementsMatch([]string{deal1.ID, deal2.ID}, ids)
}

func (suite *catalogRepositorySuite) TestListRestaurants_AttachesDeals() {
	t := suite.T()
	ctx := t.Context()

	rest := fakeRestaurant()
	require.NoError(t, suite.repo.UpsertRestaurant(ctx, rest))
	deal := fakeDeal(rest.ID)
	require.NoError(t, suite.repo.UpsertDeal(ctx, deal))

	restaurants, err := suite.repo.ListRestaurants(ctx)
	require.NoError(t, err)

	got, found := lo.Find(restaurants, func(r catalog.Restaurant) bool { return r.ID == rest.ID })
	require.True(t, found)
	require.Len(t, got.Deals, 1)
	suite.Equal(deal.ID, got.Deals[0].ID)
}
