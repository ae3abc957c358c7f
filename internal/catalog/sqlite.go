package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/fjod/shopclassy/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLRepository keeps the catalog in a sqlite database.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(dbPath string) (*SQLRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLRepository{db: db}, nil
}

func (r *SQLRepository) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migration source: %w", err)
	}

	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// Seed inserts products and categories when the products table is empty.
// It reports whether anything was written.
func (r *SQLRepository) Seed(ctx context.Context, products []domain.Product, categories []string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to count products: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, name := range categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO categories (name, position) VALUES (?, ?)`, name, i); err != nil {
			return false, fmt.Errorf("failed to insert category %q: %w", name, err)
		}
	}

	for _, p := range products {
		if err := p.Validate(); err != nil {
			return false, err
		}
		original := decimal.NullDecimal{}
		if p.OriginalPrice != nil {
			original = decimal.NewNullDecimal(*p.OriginalPrice)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, description, price, original_price, image, category,
			                      brand, rating, reviews, in_stock, on_sale, video_url)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Description, p.Price.String(), original, p.Image, p.Category,
			p.Brand, p.Rating, p.Reviews, p.InStock, p.IsOnSale, p.VideoURL,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert product %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit seed: %w", err)
	}
	return true, nil
}

func (r *SQLRepository) GetAllProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, description, price, original_price, image, category,
		       brand, rating, reviews, in_stock, on_sale, video_url
		FROM products
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var (
			p        domain.Product
			original decimal.NullDecimal
		)
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Price,
			&original,
			&p.Image,
			&p.Category,
			&p.Brand,
			&p.Rating,
			&p.Reviews,
			&p.InStock,
			&p.IsOnSale,
			&p.VideoURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if original.Valid {
			v := original.Decimal
			p.OriginalPrice = &v
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *SQLRepository) GetCategoryNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return names, nil
}

// Load reads the whole catalog into a Static snapshot.
func (r *SQLRepository) Load(ctx context.Context) (*Static, error) {
	products, err := r.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}
	names, err := r.GetCategoryNames(ctx)
	if err != nil {
		return nil, err
	}
	return NewStatic(products, names)
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}
