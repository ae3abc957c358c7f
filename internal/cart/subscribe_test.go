package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/shopclassy/internal/domain"
	"github.com/fjod/shopclassy/internal/storage"
)

func TestSubscribe_ReplaysCurrentValue(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())
	s.AddItem(context.Background(), product(1, "2"), 3)

	var got []domain.CartSnapshot
	s.Subscribe(func(snap domain.CartSnapshot) { got = append(got, snap) })

	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Count)
}

func TestSubscribe_ReceivesEveryMutationInOrder(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())
	ctx := context.Background()

	var counts []int
	s.Subscribe(func(snap domain.CartSnapshot) { counts = append(counts, snap.Count) })

	s.AddItem(ctx, product(1, "1"), 1)
	s.AddItem(ctx, product(2, "1"), 2)
	s.SetQuantity(ctx, 1, 4)
	s.RemoveItem(ctx, 2)
	s.Clear(ctx)

	assert.Equal(t, []int{0, 1, 3, 6, 4, 0}, counts)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())

	var calls, otherCalls int
	unsubscribe := s.Subscribe(func(domain.CartSnapshot) { calls++ })
	s.Subscribe(func(domain.CartSnapshot) { otherCalls++ })
	unsubscribe()
	unsubscribe()

	s.AddItem(context.Background(), product(1, "1"), 1)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, otherCalls, "repeated unsubscribe must not drop other subscribers")
}

func TestSubscribeDerived(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())
	ctx := context.Background()

	var (
		items  [][]domain.LineItem
		totals []decimal.Decimal
		counts []int
	)
	s.SubscribeItems(func(v []domain.LineItem) { items = append(items, v) })
	s.SubscribeTotal(func(v decimal.Decimal) { totals = append(totals, v) })
	s.SubscribeCount(func(v int) { counts = append(counts, v) })

	s.AddItem(ctx, product(1, "2.50"), 2)

	require.Len(t, items, 2)
	assert.Empty(t, items[0])
	assert.Len(t, items[1], 1)
	require.Len(t, totals, 2)
	assert.True(t, totals[0].IsZero())
	assert.True(t, decimal.NewFromInt(5).Equal(totals[1]))
	assert.Equal(t, []int{0, 2}, counts)
}

func TestSubscribe_CallbackMaySnapshot(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())

	var seen []int
	s.Subscribe(func(snap domain.CartSnapshot) {
		seen = append(seen, s.Snapshot().Count)
	})
	s.AddItem(context.Background(), product(1, "1"), 2)

	assert.Equal(t, []int{0, 2}, seen)
}

func TestSubscribe_CallbackCannotCorruptStore(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())
	s.Subscribe(func(snap domain.CartSnapshot) {
		for i := range snap.Items {
			snap.Items[i].Quantity = 100
		}
	})

	snap := s.AddItem(context.Background(), product(1, "1"), 1)

	assert.Equal(t, 1, snap.Items[0].Quantity)
	assert.Equal(t, 1, s.Snapshot().Items[0].Quantity)
}

func TestConcurrentMutationsAreConsistent(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())
	ctx := context.Background()

	var (
		mu   sync.Mutex
		seen []domain.CartSnapshot
	)
	s.Subscribe(func(snap domain.CartSnapshot) {
		mu.Lock()
		seen = append(seen, snap)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.AddItem(ctx, product(id%4+1, "1.25"), 1)
		}(int64(i))
	}
	wg.Wait()

	final := s.Snapshot()
	assert.Equal(t, 20, final.Count)
	assert.True(t, decimal.RequireFromString("25").Equal(final.Total))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 21)
	for i, snap := range seen {
		assert.Equal(t, i, snap.Count, "notifications must arrive in mutation order")
		assert.True(t, domain.NewCartSnapshot(snap.Items).Total.Equal(snap.Total))
	}
}
