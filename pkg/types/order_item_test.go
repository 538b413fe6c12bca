package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderItemsSubtotal(t *testing.T) {
	items := OrderItems{
		{Title: "Cable", Price: decimal.NewFromInt(25), Quantity: 2},
		{Title: "Case A", Price: decimal.RequireFromString("19.99"), Quantity: 1},
	}

	assert.Equal(t, "50", items[0].LineTotal().String())
	assert.Equal(t, "69.99", items.Subtotal().String())
	assert.True(t, OrderItems(nil).Subtotal().IsZero())
}

func TestOrderItemDecodesCheckoutShape(t *testing.T) {
	raw := `{"id":"p1","title":"Cable","slug":"cable","price":25,"quantity":2,"image":"img.png","color":"black"}`

	var item OrderItem
	require.NoError(t, json.Unmarshal([]byte(raw), &item))

	assert.Equal(t, "p1", item.ProductID)
	assert.Equal(t, "25", item.Price.String())
	assert.Equal(t, 2, item.Quantity)
	require.NotNil(t, item.Color)
	assert.Equal(t, "black", *item.Color)
	assert.Nil(t, item.Model)
}

func TestShippingInfoAddressLines(t *testing.T) {
	info := ShippingInfo{Street: "1 Main St", City: " ", Region: "Greater Accra", PostCode: "GA-100"}
	assert.Equal(t, []string{"1 Main St", "Greater Accra", "GA-100"}, info.AddressLines())
}
