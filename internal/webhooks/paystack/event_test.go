package paystackwebhook

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chargeSuccessBody = `{
  "event": "charge.success",
  "data": {
    "id": 4099260516,
    "amount": 5000,
    "currency": "GHS",
    "channel": "mobile_money",
    "paid_at": "2024-01-01T00:00:00Z",
    "reference": "REF123",
    "metadata": {
      "cartItems": [
        {"id": "p1", "title": "Cable", "slug": "cable", "price": 25, "quantity": 2, "image": "img.png"},
        {"id": "p2", "title": "Adapter", "price": "0", "quantity": 1, "color": "White"}
      ],
      "shippingInfo": {
        "email": " a@b.com ",
        "name": "A B",
        "phone": "0550000000",
        "region": "Greater Accra",
        "street": "1 Main St"
      }
    }
  }
}`

func TestParseEventChargeSuccess(t *testing.T) {
	event, err := ParseEvent([]byte(chargeSuccessBody))
	require.NoError(t, err)

	assert.True(t, event.IsChargeSuccess())
	assert.Equal(t, "REF123", event.Reference)
	assert.EqualValues(t, 5000, event.AmountMinorUnits)
	assert.Equal(t, "GHS", event.Currency)
	assert.Equal(t, "mobile_money", event.Channel)
	assert.Equal(t, "4099260516", event.ProviderTransactionID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), event.PaidAt.UTC())
	assert.Equal(t, "a@b.com", event.Metadata.ShippingInfo.Email)

	require.Len(t, event.Metadata.CartItems, 2)
	first := event.Metadata.CartItems[0]
	assert.Equal(t, "p1", first.ProductID)
	assert.Equal(t, 2, first.Quantity)
	assert.True(t, first.Price.Equal(decimal.NewFromInt(25)))
	require.NotNil(t, event.Metadata.CartItems[1].Color)
	assert.Equal(t, "White", *event.Metadata.CartItems[1].Color)
}

func TestParseEventMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":      `charge.success`,
		"missing event": `{"data":{}}`,
		"blank event":   `{"event":"  ","data":{}}`,
		"array data":    `{"event":"charge.success","data":[]}`,
		"missing data":  `{"event":"charge.failed"}`,
		"bad items":     `{"event":"charge.success","data":{"amount":100,"reference":"R","metadata":{"cartItems":"nope","shippingInfo":{"email":"a@b.com"}}}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEvent([]byte(body))
			require.ErrorIs(t, err, ErrMalformedPayload)
			assert.NotErrorIs(t, err, ErrMissingRequiredData)
		})
	}
}

func TestParseEventMissingRequiredData(t *testing.T) {
	cases := map[string]struct {
		body   string
		field  string
		detail string
	}{
		"no amount": {
			body:   `{"event":"charge.success","data":{"reference":"R","metadata":{"shippingInfo":{"email":"a@b.com"}}}}`,
			field:  "data.amount",
			detail: "is required",
		},
		"null amount": {
			body:   `{"event":"charge.success","data":{"amount":null,"reference":"R","metadata":{"shippingInfo":{"email":"a@b.com"}}}}`,
			field:  "data.amount",
			detail: "is required",
		},
		"quoted amount": {
			body:   `{"event":"charge.success","data":{"amount":"5000","reference":"R","metadata":{"shippingInfo":{"email":"a@b.com"}}}}`,
			field:  "data.amount",
			detail: "must be an integer in minor units",
		},
		"fractional amount": {
			body:   `{"event":"charge.success","data":{"amount":50.5,"reference":"R","metadata":{"shippingInfo":{"email":"a@b.com"}}}}`,
			field:  "data.amount",
			detail: "must be an integer in minor units",
		},
		"integral float amount": {
			body:   `{"event":"charge.success","data":{"amount":5000.0,"reference":"R","metadata":{"shippingInfo":{"email":"a@b.com"}}}}`,
			field:  "data.amount",
			detail: "must be an integer in minor units",
		},
		"negative amount": {
			body:   `{"event":"charge.success","data":{"amount":-100,"reference":"R","metadata":{"shippingInfo":{"email":"a@b.com"}}}}`,
			field:  "data.amount",
			detail: "must be an integer in minor units",
		},
		"no reference": {
			body:   `{"event":"charge.success","data":{"amount":100,"metadata":{"shippingInfo":{"email":"a@b.com"}}}}`,
			field:  "data.reference",
			detail: "is required",
		},
		"blank email": {
			body:   `{"event":"charge.success","data":{"amount":100,"reference":"R","metadata":{"shippingInfo":{"email":"   "}}}}`,
			field:  "data.metadata.shippingInfo.email",
			detail: "is required",
		},
		"string metadata": {
			body:   `{"event":"charge.success","data":{"amount":100,"reference":"R","metadata":""}}`,
			field:  "data.metadata.shippingInfo.email",
			detail: "is required",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEvent([]byte(tc.body))
			require.ErrorIs(t, err, ErrMissingRequiredData)

			var fields FieldErrors
			require.True(t, errors.As(err, &fields))
			assert.Equal(t, tc.detail, fields[tc.field])
		})
	}
}

func TestParseEventOtherKindsSkipValidation(t *testing.T) {
	event, err := ParseEvent([]byte(`{"event":"charge.failed","data":{"reference":"R"}}`))
	require.NoError(t, err)
	assert.Equal(t, "charge.failed", event.Kind)
	assert.False(t, event.IsChargeSuccess())
	assert.Empty(t, event.Reference)
}

func TestParseEventToleratesBadPaidAt(t *testing.T) {
	event, err := ParseEvent([]byte(`{"event":"charge.success","data":{"amount":100,"reference":"R","paid_at":"yesterday","metadata":{"shippingInfo":{"email":"a@b.com"}}}}`))
	require.NoError(t, err)
	assert.True(t, event.PaidAt.IsZero())
	assert.Empty(t, event.ProviderTransactionID)
}
