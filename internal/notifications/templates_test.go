package notifications

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func TestTemplateForStatus(t *testing.T) {
	cases := map[enums.OrderStatus]Template{
		enums.OrderStatusConfirmed:  TemplateProcessing,
		enums.OrderStatusProcessing: TemplateProcessing,
		enums.OrderStatusShipped:    TemplateShipped,
		enums.OrderStatusDelivered:  TemplateDelivered,
		enums.OrderStatusCancelled:  TemplateCancelled,
	}
	for status, want := range cases {
		got, ok := TemplateForStatus(status)
		assert.True(t, ok, status)
		assert.Equal(t, want, got, status)
	}

	_, ok := TemplateForStatus(enums.OrderStatus("archived"))
	assert.False(t, ok)
}

func TestParseTemplate(t *testing.T) {
	tmpl, err := ParseTemplate("delivered")
	require.NoError(t, err)
	assert.Equal(t, TemplateDelivered, tmpl)

	_, err = ParseTemplate("Delivered")
	require.Error(t, err)
}

func TestRenderEmailEscapesContent(t *testing.T) {
	html, err := renderEmail(emailView{
		Headline:    "Thanks",
		OrderNumber: "ORD-1",
		Items:       []itemView{{Title: "<script>alert(1)</script>", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestDeliveryFees(t *testing.T) {
	fees := DeliveryFeesFromConfig(config.DeliveryConfig{
		CapitalRegion: "Greater Accra",
		CapitalFee:    decimal.NewFromInt(30),
		StandardFee:   decimal.NewFromInt(50),
	})

	assert.Equal(t, "30", fees.For("greater accra ").String())
	assert.Equal(t, "50", fees.For("Ashanti").String())
	assert.Equal(t, "50", fees.For("").String())
	assert.Equal(t, "50", DeliveryFees{Standard: decimal.NewFromInt(50)}.For("").String())
}

func TestFormatMoney(t *testing.T) {
	ghs := FormatMoney(decimal.NewFromInt(150), "GHS")
	assert.Contains(t, ghs, "150.00")
	assert.NotEqual(t, "150.00", ghs, "currency marker expected")

	usd := FormatMoney(decimal.RequireFromString("19.5"), "usd")
	assert.Contains(t, usd, "19.50")
	assert.Contains(t, usd, "$")

	assert.Equal(t, "ABC 12.50", FormatMoney(decimal.RequireFromString("12.5"), "abc"))
	assert.Equal(t, "12.50", FormatMoney(decimal.RequireFromString("12.5"), ""))
}
