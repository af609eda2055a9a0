package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InoksFatih/SnakTime/internal/domain/auth"
	"github.com/InoksFatih/SnakTime/internal/domain/catalog"
	"github.com/InoksFatih/SnakTime/internal/domain/saveddeal"
)

// --- Mock implementations ---

type mockCatalogRepo struct {
	restaurants map[string]*catalog.Restaurant
	deals       map[string]*catalog.Deal
}

func newCatalogRepo(restaurants ...catalog.Restaurant) *mockCatalogRepo {
	m := &mockCatalogRepo{
		restaurants: make(map[string]*catalog.Restaurant),
		deals:       make(map[string]*catalog.Deal),
	}
	for i := range restaurants {
		r := &restaurants[i]
		m.restaurants[r.ID] = r
		for j := range r.Deals {
			m.deals[r.Deals[j].ID] = &r.Deals[j]
		}
	}
	return m
}

func (m *mockCatalogRepo) ListRestaurants(_ context.Context) ([]catalog.Restaurant, error) {
	var out []catalog.Restaurant
	for _, r := range m.restaurants {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockCatalogRepo) GetRestaurant(_ context.Context, id string) (*catalog.Restaurant, error) {
	r, ok := m.restaurants[id]
	if !ok {
		return nil, catalog.ErrRestaurantNotFound
	}
	return r, nil
}

func (m *mockCatalogRepo) GetDeal(_ context.Context, id string) (*catalog.Deal, error) {
	d, ok := m.deals[id]
	if !ok {
		return nil, catalog.ErrDealNotFound
	}
	return d, nil
}

func (m *mockCatalogRepo) ListDealsByRestaurant(_ context.Context, restaurantID string) ([]catalog.Deal, error) {
	r, ok := m.restaurants[restaurantID]
	if !ok {
		return nil, nil
	}
	return r.Deals, nil
}

type mockSavedDealRepo struct {
	byID map[string]*saveddeal.SavedDeal
}

func newSavedDealRepo() *mockSavedDealRepo {
	return &mockSavedDealRepo{byID: make(map[string]*saveddeal.SavedDeal)}
}

func (m *mockSavedDealRepo) Get(_ context.Context, id string) (*saveddeal.SavedDeal, error) {
	sd, ok := m.byID[id]
	if !ok {
		return nil, saveddeal.ErrNotFound
	}
	cp := *sd
	return &cp, nil
}

func (m *mockSavedDealRepo) ListByUser(_ context.Context, userID string, used *bool) ([]saveddeal.SavedDeal, error) {
	var out []saveddeal.SavedDeal
	for _, sd := range m.byID {
		if sd.UserID != userID {
			continue
		}
		if used != nil && sd.IsUsed != *used {
			continue
		}
		out = append(out, *sd)
	}
	return out, nil
}

func (m *mockSavedDealRepo) FindUnredeemed(_ context.Context, userID, dealID string) (*saveddeal.SavedDeal, error) {
	for _, sd := range m.byID {
		if sd.UserID == userID && sd.DealID == dealID && !sd.IsUsed {
			cp := *sd
			return &cp, nil
		}
	}
	return nil, saveddeal.ErrNotFound
}

func (m *mockSavedDealRepo) Create(_ context.Context, sd *saveddeal.SavedDeal) error {
	cp := *sd
	m.byID[sd.ID] = &cp
	return nil
}

func (m *mockSavedDealRepo) MarkUsed(_ context.Context, id string) (*saveddeal.SavedDeal, error) {
	sd, ok := m.byID[id]
	if !ok {
		return nil, saveddeal.ErrNotFound
	}
	if sd.IsUsed {
		return nil, saveddeal.ErrAlreadyRedeemed
	}
	sd.IsUsed = true
	cp := *sd
	return &cp, nil
}

func (m *mockSavedDealRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return saveddeal.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type mockUserRepo struct {
	byHash map[string]*auth.UserInfo
}

func (m *mockUserRepo) FindByTokenHash(_ context.Context, hash string) (*auth.UserInfo, error) {
	u, ok := m.byHash[hash]
	if !ok {
		return nil, auth.ErrUnauthorized
	}
	return u, nil
}

// --- Test fixture ---

const (
	testToken  = "session-token-u1"
	testPepper = "test-pepper"
)

// fixedNow places every request at 13:00, inside the lunch deal window.
var fixedNow = time.Date(2026, time.March, 14, 13, 0, 0, 0, time.UTC)

func testRestaurant() catalog.Restaurant {
	return catalog.Restaurant{
		ID:          "r1",
		Name:        "Burger Palace",
		Image:       "restaurants/burger-palace.jpg",
		Rating:      decimal.RequireFromString("4.7"),
		ReviewCount: 342,
		Cuisine:     "American",
		Address:     "123 Main St",
		Coordinates: catalog.Coordinates{Latitude: 37.7749, Longitude: -122.4194},
		OpeningHours: catalog.OpeningHours{
			Open:  "08:00",
			Close: "22:00",
		},
		Deals: []catalog.Deal{
			{
				ID:            "d1",
				RestaurantID:  "r1",
				Title:         "Lunch Special",
				Discount:      "20% OFF",
				OriginalPrice: decimal.RequireFromString("15.99"),
				DiscountPrice: decimal.RequireFromString("12.79"),
				StartTime:     "11:00",
				EndTime:       "14:00",
				Image:         "deals/lunch-special.jpg",
			},
			{
				ID:            "d2",
				RestaurantID:  "r1",
				Title:         "Happy Hour Combo",
				Discount:      "30% OFF",
				OriginalPrice: decimal.RequireFromString("18.50"),
				DiscountPrice: decimal.RequireFromString("12.95"),
				StartTime:     "16:00",
				EndTime:       "18:00",
				Image:         "deals/happy-hour.jpg",
			},
		},
	}
}

type fixture struct {
	router http.Handler
	saved  *mockSavedDealRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	saved := newSavedDealRepo()
	users := &mockUserRepo{byHash: map[string]*auth.UserInfo{
		TokenHash(testToken, []byte(testPepper)): {
			ID:        "u1",
			Name:      "Test User",
			TokenHash: TokenHash(testToken, []byte(testPepper)),
		},
	}}

	h := NewHandler(
		Config{
			ImageBaseURL: "https://cdn.example.com/images",
			Now:          func() time.Time { return fixedNow },
		},
		newCatalogRepo(testRestaurant()),
		saveddeal.NewService(saved),
		users,
		[]byte(testPepper),
	)

	return &fixture{router: h.Routes(), saved: saved}
}

func (f *fixture) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// --- Catalog endpoints ---

func TestListRestaurants(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/restaurants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	restaurants := decodeBody[[]restaurantResponse](t, rec)
	require.Len(t, restaurants, 1)

	r := restaurants[0]
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, "Burger Palace", r.Name)
	assert.Equal(t, "https://cdn.example.com/images/restaurants/burger-palace.jpg", r.Image)
	assert.InDelta(t, 4.7, r.Rating, 0.0001)
	assert.Len(t, r.Deals, 2)

	// At 13:00 only the lunch deal is active, so it is the badge even though
	// the happy hour deal carries a bigger discount.
	require.NotNil(t, r.BestDeal)
	assert.Equal(t, "d1", r.BestDeal.ID)
	assert.True(t, r.BestDeal.IsActive)
}

func TestGetRestaurant(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/restaurants/r1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	r := decodeBody[restaurantResponse](t, rec)
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, "08:00", r.OpeningHours.Open)
}

func TestGetRestaurant_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/restaurants/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeBody[errorResponse](t, rec)
	assert.Equal(t, http.StatusNotFound, body.Code)
}

func TestListRestaurantDeals(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/restaurants/r1/deals", "")
	require.Equal(t, http.StatusOK, rec.Code)

	deals := decodeBody[[]dealResponse](t, rec)
	require.Len(t, deals, 2)

	lunch := deals[0]
	assert.Equal(t, "d1", lunch.ID)
	assert.True(t, lunch.IsActive)
	assert.Equal(t, "1h 0m", lunch.TimeRemaining)
	assert.Equal(t, "11:00 AM", lunch.StartDisplay)
	assert.Equal(t, "2:00 PM", lunch.EndDisplay)

	happyHour := deals[1]
	assert.False(t, happyHour.IsActive)
	assert.Empty(t, happyHour.TimeRemaining)
}

func TestListRestaurantDeals_RestaurantNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/restaurants/missing/deals", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDeal(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/deals/d1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	d := decodeBody[dealResponse](t, rec)
	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, "r1", d.RestaurantID)
	assert.InDelta(t, 15.99, d.OriginalPrice, 0.0001)
	assert.InDelta(t, 12.79, d.DiscountedPrice, 0.0001)
	assert.Equal(t, "https://cdn.example.com/images/deals/lunch-special.jpg", d.Image)
}

func TestGetDeal_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/deals/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- Authentication ---

func TestAuthenticate_MissingToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/deals/d1/save", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/deals/d1/save", "wrong-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_BareTokenAccepted(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/saved-deals", nil)
	req.Header.Set("Authorization", testToken)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- Saved deal endpoints ---

func TestSaveDeal(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/deals/d1/save", testToken)
	require.Equal(t, http.StatusCreated, rec.Code)

	sd := decodeBody[savedDealResponse](t, rec)
	assert.NotEmpty(t, sd.ID)
	assert.Equal(t, "d1", sd.DealID)
	assert.Equal(t, "r1", sd.RestaurantID)
	assert.Contains(t, sd.Code, "SNAK-d1-u1-")
	assert.Equal(t, fixedNow, sd.CreatedAt.UTC())
	assert.Equal(t, fixedNow.Add(24*time.Hour), sd.ExpiresAt.UTC())
	assert.False(t, sd.IsUsed)
	assert.False(t, sd.IsExpired)
}

func TestSaveDeal_NotActive(t *testing.T) {
	f := newFixture(t)

	// d2 runs 16:00-18:00; requests land at 13:00.
	rec := f.do(t, http.MethodPost, "/deals/d2/save", testToken)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSaveDeal_Duplicate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/deals/d1/save", testToken)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/deals/d1/save", testToken)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSaveDeal_DealNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/deals/missing/save", testToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSavedDeals(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/deals/d1/save", testToken)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/saved-deals", testToken)
	require.Equal(t, http.StatusOK, rec.Code)

	deals := decodeBody[[]savedDealResponse](t, rec)
	require.Len(t, deals, 1)
	assert.Equal(t, "d1", deals[0].DealID)
}

func TestListSavedDeals_UsedFilter(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/deals/d1/save", testToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[savedDealResponse](t, rec)

	rec = f.do(t, http.MethodPost, "/saved-deals/"+created.ID+"/redeem", testToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/saved-deals?used=true", testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]savedDealResponse](t, rec), 1)

	rec = f.do(t, http.MethodGet, "/saved-deals?used=false", testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]savedDealResponse](t, rec))
}

func TestListSavedDeals_BadUsedValue(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/saved-deals?used=maybe", testToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSavedDeal(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/deals/d1/save", testToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[savedDealResponse](t, rec)

	rec = f.do(t, http.MethodGet, "/saved-deals/"+created.ID, testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[savedDealResponse](t, rec)
	assert.Equal(t, created.ID, got.ID)
}

func TestGetSavedDeal_OtherUserReadsAsNotFound(t *testing.T) {
	f := newFixture(t)

	f.saved.byID["foreign"] = &saveddeal.SavedDeal{
		ID:     "foreign",
		UserID: "u2",
		DealID: "d1",
	}

	rec := f.do(t, http.MethodGet, "/saved-deals/foreign", testToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRedeemSavedDeal(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/deals/d1/save", testToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[savedDealResponse](t, rec)

	rec = f.do(t, http.MethodPost, "/saved-deals/"+created.ID+"/redeem", testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	redeemed := decodeBody[savedDealResponse](t, rec)
	assert.True(t, redeemed.IsUsed)

	rec = f.do(t, http.MethodPost, "/saved-deals/"+created.ID+"/redeem", testToken)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRedeemSavedDeal_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/saved-deals/missing/redeem", testToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSavedDeal(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/deals/d1/save", testToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[savedDealResponse](t, rec)

	rec = f.do(t, http.MethodDelete, "/saved-deals/"+created.ID, testToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/saved-deals/"+created.ID, testToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- Image URL resolution ---

func TestImageURL(t *testing.T) {
	h := &Handler{imageBaseURL: "https://cdn.example.com/images/"}

	assert.Equal(t, "https://cdn.example.com/images/deals/a.jpg", h.imageURL("deals/a.jpg"))
	assert.Equal(t, "https://cdn.example.com/images/deals/a.jpg", h.imageURL("/deals/a.jpg"))
	assert.Equal(t, "https://other.example.com/a.jpg", h.imageURL("https://other.example.com/a.jpg"))
	assert.Empty(t, h.imageURL(""))

	bare := &Handler{}
	assert.Equal(t, "deals/a.jpg", bare.imageURL("deals/a.jpg"))
}
