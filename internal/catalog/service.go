package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/shopclassy/internal/domain"
)

// ErrStaticCatalog is returned by Refresh when the service has no loader.
var ErrStaticCatalog = errors.New("catalog: no loader configured")

type Loader interface {
	Load(ctx context.Context) (*Static, error)
}

// Service is a Source whose catalog can be reloaded while it is being read.
type Service struct {
	current atomic.Pointer[Static]
	loader  Loader
	sfg     singleflight.Group // collapses concurrent refreshes
	logger  *zap.Logger
}

func NewService(initial *Static, loader Loader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{loader: loader, logger: logger}
	if initial == nil {
		initial, _ = NewStatic(nil, nil)
	}
	s.current.Store(initial)
	return s
}

func (s *Service) ListProducts() []domain.Product {
	return s.current.Load().ListProducts()
}

func (s *Service) ListCategories() []domain.Category {
	return s.current.Load().ListCategories()
}

func (s *Service) FindProduct(id int64) (domain.Product, bool) {
	return s.current.Load().FindProduct(id)
}

// Refresh reloads the catalog. On failure the previous catalog stays in place.
func (s *Service) Refresh(ctx context.Context) (*Static, error) {
	if s.loader == nil {
		return nil, ErrStaticCatalog
	}

	v, err, shared := s.sfg.Do("catalog", func() (interface{}, error) {
		next, err := s.loader.Load(ctx)
		if err != nil {
			return nil, err
		}
		s.current.Store(next)
		return next, nil
	})
	if err != nil {
		s.logger.Warn("catalog refresh failed", zap.Error(err))
		return nil, err
	}

	next := v.(*Static)
	s.logger.Info("catalog refreshed",
		zap.Int("products", len(next.products)),
		zap.Bool("shared", shared),
	)
	return next, nil
}

// Run refreshes the catalog every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if s.loader == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_, _ = s.Refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}
