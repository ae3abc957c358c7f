package catalog

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/fjod/shopclassy/internal/domain"
)

//go:embed data/catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Categories []struct {
		Name string `yaml:"name"`
	} `yaml:"categories"`
	Products []productRecord `yaml:"products"`
}

type productRecord struct {
	ID            int64   `yaml:"id"`
	Name          string  `yaml:"name"`
	Description   string  `yaml:"description"`
	Price         string  `yaml:"price"`
	OriginalPrice string  `yaml:"original_price"`
	Image         string  `yaml:"image"`
	Category      string  `yaml:"category"`
	Brand         string  `yaml:"brand"`
	Rating        float64 `yaml:"rating"`
	Reviews       int     `yaml:"reviews"`
	InStock       bool    `yaml:"in_stock"`
	OnSale        bool    `yaml:"on_sale"`
	VideoURL      string  `yaml:"video_url"`
}

// Default returns the catalog bundled with the binary.
func Default() (*Static, error) {
	return ParseYAML(defaultCatalog)
}

// DefaultProducts returns the bundled product list, used to seed other stores.
func DefaultProducts() ([]domain.Product, []string, error) {
	s, err := Default()
	if err != nil {
		return nil, nil, err
	}
	return s.ListProducts(), s.categoryNames(), nil
}

func ParseYAML(data []byte) (*Static, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog yaml: %w", err)
	}

	products := make([]domain.Product, 0, len(f.Products))
	for _, rec := range f.Products {
		p, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	names := make([]string, 0, len(f.Categories))
	for _, c := range f.Categories {
		names = append(names, c.Name)
	}

	return NewStatic(products, names)
}

func (r productRecord) toDomain() (domain.Product, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: product %d price %q: %v", domain.ErrInvalidProduct, r.ID, r.Price, err)
	}

	p := domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       price,
		Image:       r.Image,
		Category:    r.Category,
		Brand:       r.Brand,
		Rating:      r.Rating,
		Reviews:     r.Reviews,
		InStock:     r.InStock,
		IsOnSale:    r.OnSale,
		VideoURL:    r.VideoURL,
	}

	if r.OriginalPrice != "" {
		original, err := decimal.NewFromString(r.OriginalPrice)
		if err != nil {
			return domain.Product{}, fmt.Errorf("%w: product %d original price %q: %v", domain.ErrInvalidProduct, r.ID, r.OriginalPrice, err)
		}
		p.OriginalPrice = &original
	}

	return p, nil
}
