package http

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fjod/shopclassy/internal/catalog"
	"github.com/fjod/shopclassy/internal/domain"
	"github.com/fjod/shopclassy/internal/logger"
)

// CatalogService is the catalog as seen by the handlers.
type CatalogService interface {
	catalog.Source
	Refresh(ctx context.Context) (*catalog.Static, error)
}

type ProductHandler struct {
	catalog CatalogService
}

func NewProductHandler(c CatalogService) *ProductHandler {
	return &ProductHandler{catalog: c}
}

type CriteriaResponse struct {
	Search   string          `json:"search"`
	Category string          `json:"category"`
	Sort     catalog.SortKey `json:"sort"`
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
	Count    int              `json:"count"`
	Criteria CriteriaResponse `json:"criteria"`
}

type CategoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}

type SortOptionsResponse struct {
	Options []catalog.SortOption `json:"options"`
}

// List runs the filter/sort pipeline over the whole catalog.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := catalog.Criteria{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Sort:     catalog.ParseSortKey(q.Get("sort")),
	}

	products := catalog.Apply(h.catalog.ListProducts(), criteria)

	respondJSON(w, r, http.StatusOK, ProductsResponse{
		Products: products,
		Count:    len(products),
		Criteria: CriteriaResponse{
			Search:   criteria.Search,
			Category: criteria.Category,
			Sort:     criteria.Sort,
		},
	})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r, "id")
	if !ok {
		return
	}

	p, found := h.catalog.FindProduct(id)
	if !found {
		respondError(w, r, http.StatusNotFound, "product_not_found", "product not found")
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, CategoriesResponse{Categories: h.catalog.ListCategories()})
}

func (h *ProductHandler) SortOptions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, SortOptionsResponse{Options: catalog.SortOptions()})
}

func (h *ProductHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	next, err := h.catalog.Refresh(r.Context())
	if errors.Is(err, catalog.ErrStaticCatalog) {
		respondError(w, r, http.StatusConflict, "static_catalog", "catalog has no backing store to refresh from")
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("catalog refresh failed", zap.Error(err))
		respondError(w, r, http.StatusServiceUnavailable, "refresh_failed", "catalog refresh failed")
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]int{"products": len(next.ListProducts())})
}
