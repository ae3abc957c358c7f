package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fjod/shopclassy/internal/cart"
	"github.com/fjod/shopclassy/internal/catalog"
	"github.com/fjod/shopclassy/internal/domain"
	"github.com/fjod/shopclassy/internal/hydration"
	"github.com/fjod/shopclassy/internal/storage"
)

type fakeLoader struct {
	next *catalog.Static
	err  error
}

func (f fakeLoader) Load(context.Context) (*catalog.Static, error) {
	return f.next, f.err
}

type testEnv struct {
	handler   http.Handler
	catalog   *catalog.Service
	hydration *hydration.Service
	store     *cart.Store
	storage   *storage.Memory
}

func newTestEnv(t *testing.T, loader catalog.Loader) testEnv {
	t.Helper()

	static, err := catalog.Default()
	require.NoError(t, err)
	svc := catalog.NewService(static, loader, zap.NewNop())

	content, err := hydration.NewService(svc)
	require.NoError(t, err)

	mem := storage.NewMemory()
	store := cart.NewStore(context.Background(), cart.StoreDeps{Storage: mem})

	return testEnv{
		handler: NewRouter(RouterDeps{
			Catalog:     svc,
			Cart:        store,
			Hydration:   content,
			Logger:      zap.NewNop(),
			MaxBodySize: 1024,
		}),
		catalog:   svc,
		hydration: content,
		store:     store,
		storage:   mem,
	}
}

func (e testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	e.handler.ServeHTTP(recorder, request)
	return recorder
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

func productIDsOf(products []domain.Product) []int64 {
	out := make([]int64, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestListProducts_Pipeline(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/products?search=shades&category=Makeup&sort=price-low", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ProductsResponse](t, rec)
	assert.Equal(t, []int64{2, 7, 5}, productIDsOf(resp.Products))
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, catalog.SortPriceLow, resp.Criteria.Sort)
}

func TestListProducts_UnknownSortFallsBackToName(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/products?sort=bogus", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ProductsResponse](t, rec)
	assert.Equal(t, catalog.SortName, resp.Criteria.Sort)
	assert.Equal(t, []int64{6, 7, 1, 2, 4, 8, 5, 3}, productIDsOf(resp.Products))
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/products/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[domain.Product](t, rec)
	assert.Equal(t, "Vitamin C Brightening Serum", p.Name)
	assert.True(t, decimal.RequireFromString("65").Equal(p.Price))

	rec = env.do(t, http.MethodGet, "/api/v1/products/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product_not_found", decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/v1/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategoriesAndSortOptions(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode[CategoriesResponse](t, rec)
	require.Len(t, cats.Categories, 5)
	assert.Equal(t, "all", cats.Categories[0].ID)
	assert.Equal(t, 8, cats.Categories[0].Count)

	rec = env.do(t, http.MethodGet, "/api/v1/sort-options", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[SortOptionsResponse](t, rec).Options, 5)
}

func TestRefreshCatalog(t *testing.T) {
	next, err := catalog.NewStatic([]domain.Product{{ID: 42, Name: "Only", Price: decimal.NewFromInt(1), Category: "Tools"}}, nil)
	require.NoError(t, err)

	t.Run("static catalog", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodPost, "/api/v1/catalog/refresh", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("loader error", func(t *testing.T) {
		env := newTestEnv(t, fakeLoader{err: errors.New("db locked")})
		rec := env.do(t, http.MethodPost, "/api/v1/catalog/refresh", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("swaps catalog", func(t *testing.T) {
		env := newTestEnv(t, fakeLoader{next: next})
		rec := env.do(t, http.MethodPost, "/api/v1/catalog/refresh", "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodGet, "/api/v1/products", "")
		assert.Equal(t, []int64{42}, productIDsOf(decode[ProductsResponse](t, rec).Products))
	})
}

func TestCart_AddMergesAndDefaultsQuantity(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1,"quantity":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	snap := decode[domain.CartSnapshot](t, rec)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 4, snap.Count)
	assert.True(t, decimal.RequireFromString("359.96").Equal(snap.Total), "total %s", snap.Total)

	rec = env.do(t, http.MethodGet, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decode[domain.CartSnapshot](t, rec).Count)
}

func TestCart_AddValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "bad json", body: `{`, status: http.StatusBadRequest, code: "invalid_request"},
		{name: "missing product", body: `{"quantity":1}`, status: http.StatusBadRequest, code: "invalid_product_id"},
		{name: "zero quantity", body: `{"product_id":1,"quantity":0}`, status: http.StatusBadRequest, code: "invalid_quantity"},
		{name: "too many", body: `{"product_id":1,"quantity":100}`, status: http.StatusBadRequest, code: "invalid_quantity"},
		{name: "unknown product", body: `{"product_id":404}`, status: http.StatusNotFound, code: "product_not_found"},
		{name: "out of stock", body: `{"product_id":7}`, status: http.StatusConflict, code: "out_of_stock"},
		{name: "body too large", body: `{"product_id":1,"pad":"` + strings.Repeat("x", 2048) + `"}`, status: http.StatusRequestEntityTooLarge, code: "body_too_large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/cart/items", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}

	assert.Empty(t, env.store.Snapshot().Items)
}

func TestCart_UpdateQuantity(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":2,"quantity":1}`)

	rec := env.do(t, http.MethodPut, "/api/v1/cart/items/2", `{"quantity":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[domain.CartSnapshot](t, rec).Count)

	rec = env.do(t, http.MethodPut, "/api/v1/cart/items/2", `{"quantity":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/cart/items/2", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/cart/items/2", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[domain.CartSnapshot](t, rec).Items)
}

func TestCart_UpdateAbsentItemIsNoop(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPut, "/api/v1/cart/items/3", `{"quantity":2}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[domain.CartSnapshot](t, rec).Items)
}

func TestCart_RemoveAndClear(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`)
	env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":3}`)

	rec := env.do(t, http.MethodDelete, "/api/v1/cart/items/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[domain.CartSnapshot](t, rec)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(3), snap.Items[0].Product.ID)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[domain.CartSnapshot](t, rec).Count)

	stored, found, err := env.storage.Read(context.Background(), cart.DefaultKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "[]", stored)
}

func TestHydrationRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/hydration/tips?category=evening&skin_type=dry", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tips := decode[TipsResponse](t, rec).Tips
	ids := make([]int, 0, len(tips))
	for _, tip := range tips {
		ids = append(ids, tip.ID)
	}
	assert.Equal(t, []int{6, 8, 9}, ids)

	rec = env.do(t, http.MethodGet, "/api/v1/hydration/tips?category=noon", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/hydration/routines?skin_type=oily&difficulty=advanced", "")
	require.Equal(t, http.StatusOK, rec.Code)
	routines := decode[RoutinesResponse](t, rec).Routines
	require.Len(t, routines, 1)
	assert.Equal(t, 3, routines[0].ID)

	rec = env.do(t, http.MethodGet, "/api/v1/hydration/routines?difficulty=expert", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/hydration/routines/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[hydration.Routine](t, rec).Steps, 9)

	rec = env.do(t, http.MethodGet, "/api/v1/hydration/routines/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/hydration/recommendations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{1, 3, 8}, productIDsOf(decode[RecommendationsResponse](t, rec).Products))

	rec = env.do(t, http.MethodGet, "/api/v1/hydration/products/3/tips", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[TipsResponse](t, rec).Tips, 1)

	rec = env.do(t, http.MethodGet, "/api/v1/hydration/products/99/tips", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/hydration/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, decode[hydration.Stats](t, rec).TotalTips)
}

func TestRequestLogger_KeepsStatus(t *testing.T) {
	r := RequestLogger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusTeapot, "teapot", "short and stout")
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "teapot", decode[ErrorResponse](t, rec).Code)
}
