package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCartSnapshot_Totals(t *testing.T) {
	a := Product{ID: 1, Name: "A", Price: decimal.RequireFromString("10.10")}
	b := Product{ID: 2, Name: "B", Price: decimal.RequireFromString("0.20")}

	s := NewCartSnapshot([]LineItem{{Product: a, Quantity: 3}, {Product: b, Quantity: 1}})

	assert.True(t, decimal.RequireFromString("30.50").Equal(s.Total), "total %s", s.Total)
	assert.Equal(t, 4, s.Count)
}

func TestNewCartSnapshot_Empty(t *testing.T) {
	s := NewCartSnapshot(nil)

	assert.NotNil(t, s.Items)
	assert.Empty(t, s.Items)
	assert.True(t, s.Total.IsZero())
	assert.Zero(t, s.Count)
}

func TestNewCartSnapshot_CopiesItems(t *testing.T) {
	items := []LineItem{{Product: Product{ID: 1, Name: "A", Price: decimal.NewFromInt(1)}, Quantity: 1}}

	s := NewCartSnapshot(items)
	items[0].Quantity = 9

	assert.Equal(t, 1, s.Items[0].Quantity)
}

func TestCartSnapshot_Find(t *testing.T) {
	s := NewCartSnapshot([]LineItem{{Product: Product{ID: 4, Name: "D", Price: decimal.NewFromInt(2)}, Quantity: 2}})

	item, ok := s.Find(4)
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)

	_, ok = s.Find(5)
	assert.False(t, ok)
}
