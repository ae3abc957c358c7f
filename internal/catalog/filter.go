package catalog

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/fjod/shopclassy/internal/domain"
)

type SortKey string

const (
	SortName       SortKey = "name"
	SortPriceLow   SortKey = "price-low"
	SortPriceHigh  SortKey = "price-high"
	SortRating     SortKey = "rating"
	SortPopularity SortKey = "popularity"
)

var sortLabels = map[SortKey]string{
	SortName:       "Name",
	SortPriceLow:   "Price: Low to High",
	SortPriceHigh:  "Price: High to Low",
	SortRating:     "Highest Rated",
	SortPopularity: "Most Popular",
}

var sortOrder = []SortKey{SortName, SortPriceLow, SortPriceHigh, SortRating, SortPopularity}

type SortOption struct {
	Key   SortKey `json:"key"`
	Label string  `json:"label"`
}

// SortOptions lists the supported sort keys with their display labels.
func SortOptions() []SortOption {
	out := make([]SortOption, 0, len(sortOrder))
	for _, k := range sortOrder {
		out = append(out, SortOption{Key: k, Label: sortLabels[k]})
	}
	return out
}

// ParseSortKey maps user input onto a SortKey. Empty and unknown values
// resolve to SortName.
func ParseSortKey(s string) SortKey {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := sortLabels[k]; ok {
		return k
	}
	return SortName
}

// Criteria drives the catalog view.
type Criteria struct {
	Search   string
	Category string
	Sort     SortKey
}

// Apply runs search, category and sort over products and returns a new
// slice. The input is never modified. Sorting is stable.
func Apply(products []domain.Product, c Criteria) []domain.Product {
	query := strings.ToLower(c.Search)
	category := domain.CategoryID(c.Category)
	if category == "" {
		category = AllCategories
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if query != "" && !matchesSearch(p, query) {
			continue
		}
		if category != AllCategories && domain.CategoryID(p.Category) != category {
			continue
		}
		out = append(out, p)
	}

	slices.SortStableFunc(out, comparator(ParseSortKey(string(c.Sort))))
	return out
}

func matchesSearch(p domain.Product, query string) bool {
	return strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query) ||
		strings.Contains(strings.ToLower(p.Brand), query)
}

func comparator(key SortKey) func(a, b domain.Product) int {
	switch key {
	case SortPriceLow:
		return func(a, b domain.Product) int { return a.Price.Cmp(b.Price) }
	case SortPriceHigh:
		return func(a, b domain.Product) int { return b.Price.Cmp(a.Price) }
	case SortRating:
		return func(a, b domain.Product) int { return cmp.Compare(b.Rating, a.Rating) }
	case SortPopularity:
		return func(a, b domain.Product) int { return cmp.Compare(b.Reviews, a.Reviews) }
	default:
		// collators keep internal buffers, one per call
		col := collate.New(language.English)
		return func(a, b domain.Product) int { return col.CompareString(a.Name, b.Name) }
	}
}
