package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/shopclassy/internal/domain"
	"github.com/fjod/shopclassy/internal/storage"
)

const (
	DefaultKey          = "shopclassy_cart"
	defaultWriteTimeout = 2 * time.Second
)

// ErrCorruptSnapshot is reported when the persisted cart cannot be restored.
var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

type StoreDeps struct {
	Storage      storage.Storage
	Key          string
	Logger       *zap.Logger
	WriteTimeout time.Duration
}

// Store holds the shopper's cart. Mutations are serialized; each effective
// mutation recomputes the snapshot, notifies subscribers and persists the
// line items, in that order, before the next mutation starts.
//
// Subscriber callbacks run synchronously while the store is locked. They may
// call Snapshot but must not mutate the store or subscribe.
type Store struct {
	mu       sync.Mutex
	items    []domain.LineItem
	current  atomic.Pointer[domain.CartSnapshot]
	subs     subject[domain.CartSnapshot]
	storage  storage.Storage
	key      string
	logger   *zap.Logger
	writeTTL time.Duration
}

// NewStore restores the cart persisted under deps.Key. A missing, unreadable
// or corrupt value yields an empty cart; the last two are logged.
func NewStore(ctx context.Context, deps StoreDeps) *Store {
	if deps.Storage == nil {
		deps.Storage = storage.Noop{}
	}
	if deps.Key == "" {
		deps.Key = DefaultKey
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.WriteTimeout <= 0 {
		deps.WriteTimeout = defaultWriteTimeout
	}

	s := &Store{
		storage:  deps.Storage,
		key:      deps.Key,
		logger:   deps.Logger.With(zap.String("cart_key", deps.Key)),
		writeTTL: deps.WriteTimeout,
	}

	items, err := s.restore(ctx)
	switch {
	case errors.Is(err, ErrCorruptSnapshot):
		s.logger.Warn("discarding persisted cart", zap.Error(err))
	case err != nil:
		s.logger.Warn("failed to restore cart", zap.Error(err))
	}
	s.items = items
	snap := domain.NewCartSnapshot(items)
	s.current.Store(&snap)

	return s
}

func (s *Store) restore(ctx context.Context) ([]domain.LineItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.writeTTL)
	defer cancel()

	raw, found, err := s.storage.Read(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if !found {
		return nil, nil
	}

	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}
	s.logger.Info("cart restored", zap.Int("items", len(items)))
	return items, nil
}

func decodeItems(raw string) ([]domain.LineItem, error) {
	var items []domain.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %d has quantity %d", ErrCorruptSnapshot, item.Product.ID, item.Quantity)
		}
		if err := item.Product.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if _, dup := seen[item.Product.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product %d", ErrCorruptSnapshot, item.Product.ID)
		}
		seen[item.Product.ID] = struct{}{}
	}
	return items, nil
}

// AddItem adds quantity units of product, merging with an existing line.
// Non-positive quantities and invalid products leave the cart unchanged.
func (s *Store) AddItem(ctx context.Context, product domain.Product, quantity int) domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.Snapshot()
	}
	if err := product.Validate(); err != nil {
		s.logger.Warn("refusing to add product", zap.Error(err))
		return s.Snapshot()
	}

	items := cloneItems(s.items)
	if i := indexOf(items, product.ID); i >= 0 {
		items[i].Quantity += quantity
	} else {
		items = append(items, domain.LineItem{Product: cloneProduct(product), Quantity: quantity})
	}
	return s.commit(ctx, items)
}

// RemoveItem drops the line for productID. Absent ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID int64) domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.remove(ctx, productID)
}

// SetQuantity replaces the quantity of an existing line. Quantities <= 0
// remove it; absent ids are a no-op.
func (s *Store) SetQuantity(ctx context.Context, productID int64, quantity int) domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.remove(ctx, productID)
	}

	i := indexOf(s.items, productID)
	if i < 0 {
		return s.Snapshot()
	}
	items := cloneItems(s.items)
	items[i].Quantity = quantity
	return s.commit(ctx, items)
}

func (s *Store) Clear(ctx context.Context) domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, nil)
}

// Snapshot returns a deep copy of the current cart.
func (s *Store) Snapshot() domain.CartSnapshot {
	return cloneSnapshot(*s.current.Load())
}

// Subscribe calls fn with the current cart and then after every mutation.
// The returned func unsubscribes.
func (s *Store) Subscribe(fn func(domain.CartSnapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	unsubscribe := s.subs.add(fn)
	fn(s.Snapshot())
	return unsubscribe
}

func (s *Store) SubscribeItems(fn func([]domain.LineItem)) func() {
	return s.Subscribe(func(snap domain.CartSnapshot) { fn(snap.Items) })
}

func (s *Store) SubscribeTotal(fn func(decimal.Decimal)) func() {
	return s.Subscribe(func(snap domain.CartSnapshot) { fn(snap.Total) })
}

func (s *Store) SubscribeCount(fn func(int)) func() {
	return s.Subscribe(func(snap domain.CartSnapshot) { fn(snap.Count) })
}

func (s *Store) remove(ctx context.Context, productID int64) domain.CartSnapshot {
	i := indexOf(s.items, productID)
	if i < 0 {
		return s.Snapshot()
	}
	items := make([]domain.LineItem, 0, len(s.items)-1)
	items = append(items, s.items[:i]...)
	items = append(items, s.items[i+1:]...)
	return s.commit(ctx, items)
}

// commit must be called with mu held.
func (s *Store) commit(ctx context.Context, items []domain.LineItem) domain.CartSnapshot {
	s.items = items
	snap := domain.NewCartSnapshot(items)
	s.current.Store(&snap)

	for _, fn := range s.subs.callbacks() {
		fn(cloneSnapshot(snap))
	}

	s.persist(ctx, items)
	return cloneSnapshot(snap)
}

func (s *Store) persist(ctx context.Context, items []domain.LineItem) {
	if items == nil {
		items = []domain.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Error("failed to encode cart", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTTL)
	defer cancel()

	if err := s.storage.Write(ctx, s.key, string(data)); err != nil {
		s.logger.Warn("failed to persist cart",
			zap.Int("items", len(items)),
			zap.Error(err),
		)
	}
}

func indexOf(items []domain.LineItem, productID int64) int {
	for i, item := range items {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}

func cloneProduct(p domain.Product) domain.Product {
	if p.OriginalPrice != nil {
		v := *p.OriginalPrice
		p.OriginalPrice = &v
	}
	return p
}

func cloneItems(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	for i, item := range items {
		out[i] = domain.LineItem{Product: cloneProduct(item.Product), Quantity: item.Quantity}
	}
	return out
}

func cloneSnapshot(s domain.CartSnapshot) domain.CartSnapshot {
	s.Items = cloneItems(s.Items)
	return s
}
