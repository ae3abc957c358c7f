package catalog

import (
	"fmt"

	"github.com/fjod/shopclassy/internal/domain"
)

// AllCategories is the selector that disables category filtering.
const AllCategories = "all"

// Source is the read-only view of the product catalog.
type Source interface {
	ListProducts() []domain.Product
	ListCategories() []domain.Category
	FindProduct(id int64) (domain.Product, bool)
}

// Static is an immutable catalog held in memory.
type Static struct {
	products   []domain.Product
	categories []domain.Category
	byID       map[int64]int
}

// NewStatic validates products and derives category counts. Categories are
// listed in the order of categoryNames, followed by any category that only
// appears on products, with the synthetic "all" entry first.
func NewStatic(products []domain.Product, categoryNames []string) (*Static, error) {
	s := &Static{
		products: make([]domain.Product, 0, len(products)),
		byID:     make(map[int64]int, len(products)),
	}

	counts := make(map[string]int)
	var seen []string
	names := make(map[string]string)
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product id %d", domain.ErrInvalidProduct, p.ID)
		}
		s.byID[p.ID] = len(s.products)
		s.products = append(s.products, p)

		id := domain.CategoryID(p.Category)
		if _, ok := counts[id]; !ok {
			seen = append(seen, id)
			names[id] = p.Category
		}
		counts[id]++
	}

	s.categories = append(s.categories, domain.Category{ID: AllCategories, Name: "All Products", Count: len(s.products)})
	listed := make(map[string]bool)
	for _, name := range categoryNames {
		id := domain.CategoryID(name)
		if id == "" || id == AllCategories || listed[id] {
			continue
		}
		listed[id] = true
		s.categories = append(s.categories, domain.Category{ID: id, Name: name, Count: counts[id]})
	}
	for _, id := range seen {
		if listed[id] {
			continue
		}
		s.categories = append(s.categories, domain.Category{ID: id, Name: names[id], Count: counts[id]})
	}

	return s, nil
}

func (s *Static) ListProducts() []domain.Product {
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Static) ListCategories() []domain.Category {
	out := make([]domain.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

func (s *Static) FindProduct(id int64) (domain.Product, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[i], true
}

func (s *Static) categoryNames() []string {
	out := make([]string, 0, len(s.categories))
	for _, c := range s.categories {
		if c.ID == AllCategories {
			continue
		}
		out = append(out, c.Name)
	}
	return out
}
