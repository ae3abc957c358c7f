package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidProduct = errors.New("invalid product")

type Product struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Image         string           `json:"image"`
	Category      string           `json:"category"`
	Brand         string           `json:"brand"`
	Rating        float64          `json:"rating"`
	Reviews       int              `json:"reviews"`
	InStock       bool             `json:"inStock"`
	IsOnSale      bool             `json:"isOnSale"`
	VideoURL      string           `json:"videoUrl,omitempty"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Validate checks the invariants every catalog product must hold.
func (p Product) Validate() error {
	switch {
	case p.ID <= 0:
		return fmt.Errorf("%w: id must be positive, got %d", ErrInvalidProduct, p.ID)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: product %d has no name", ErrInvalidProduct, p.ID)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: product %d has negative price", ErrInvalidProduct, p.ID)
	case p.OriginalPrice != nil && p.OriginalPrice.LessThan(p.Price):
		return fmt.Errorf("%w: product %d original price below price", ErrInvalidProduct, p.ID)
	case p.Rating < 0 || p.Rating > 5:
		return fmt.Errorf("%w: product %d rating %.2f out of range", ErrInvalidProduct, p.ID, p.Rating)
	case p.Reviews < 0:
		return fmt.Errorf("%w: product %d has negative review count", ErrInvalidProduct, p.ID)
	}
	return nil
}

// CategoryID normalises a category name into its selector form.
// Whitespace is significant.
func CategoryID(name string) string {
	return strings.ToLower(name)
}
