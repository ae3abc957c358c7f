package domain

import "github.com/shopspring/decimal"

type LineItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

type CartSnapshot struct {
	Items []LineItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// NewCartSnapshot derives total and count from items. The slice is copied.
func NewCartSnapshot(items []LineItem) CartSnapshot {
	out := make([]LineItem, len(items))
	copy(out, items)

	total := decimal.Zero
	count := 0
	for _, item := range out {
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}

	return CartSnapshot{
		Items: out,
		Total: total,
		Count: count,
	}
}

func (s CartSnapshot) Find(productID int64) (LineItem, bool) {
	for _, item := range s.Items {
		if item.Product.ID == productID {
			return item, true
		}
	}
	return LineItem{}, false
}
