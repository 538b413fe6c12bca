package types

import "github.com/shopspring/decimal"

// OrderItem is the snapshot of one cart line as it was paid for. It is copied
// from the payment metadata and never re-read from the catalog.
type OrderItem struct {
	ProductID string          `json:"id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Color     *string         `json:"color,omitempty"`
	Model     *string         `json:"model,omitempty"`
}

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderItems is stored as a jsonb array.
type OrderItems []OrderItem

// Subtotal sums every line total.
func (items OrderItems) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
