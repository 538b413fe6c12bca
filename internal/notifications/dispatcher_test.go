package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type recordingSender struct {
	messages []mailer.Message
	err      error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) (mailer.SendResult, error) {
	if s.err != nil {
		return mailer.SendResult{}, s.err
	}
	s.messages = append(s.messages, msg)
	return mailer.SendResult{MessageID: "msg-1", SentAt: time.Now()}, nil
}

func newDispatcher(t *testing.T, sender mailer.Sender) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(DispatcherParams{
		Sender: sender,
		Fees: DeliveryFees{
			CapitalRegion: "Greater Accra",
			Capital:       decimal.NewFromInt(30),
			Standard:      decimal.NewFromInt(50),
		},
		Support: Support{Email: "support@shop.test", Phone: "+233 20 000 0000"},
		Metrics: metrics.NewNotificationMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return d
}

func sampleOrder() *models.Order {
	color := "Black"
	return &models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1704067200000-AB12CD",
		Status:      enums.OrderStatusConfirmed,
		Amount:      decimal.NewFromInt(50),
		Currency:    "GHS",
		Items: types.OrderItems{
			{ProductID: "p1", Title: "Cable", Price: decimal.NewFromInt(25), Quantity: 2, Image: "img.png", Color: &color},
			{ProductID: "p2", Title: "Case A", Price: decimal.NewFromInt(20), Quantity: 1},
		},
		ShippingInfo: types.ShippingInfo{
			Name:   "A B",
			Email:  "a@b.com",
			Phone:  "0550000000",
			Region: "Greater Accra",
			Street: "1 Main St",
		},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSendProcessingEmail(t *testing.T) {
	sender := &recordingSender{}
	d := newDispatcher(t, sender)

	require.NoError(t, d.Send(context.Background(), sampleOrder(), TemplateProcessing))
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Equal(t, "a@b.com", msg.To)
	assert.Equal(t, "A B", msg.ToName)
	assert.Equal(t, "Your order ORD-1704067200000-AB12CD is being processed", msg.Subject)
	assert.Contains(t, msg.HTML, "ORD-1704067200000-AB12CD")
	assert.Contains(t, msg.HTML, "January 1, 2024")
	assert.Contains(t, msg.HTML, "Cable")
	assert.Contains(t, msg.HTML, "Case A")
	assert.Contains(t, msg.HTML, "img.png")
	assert.Contains(t, msg.HTML, "Black")
	assert.Contains(t, msg.HTML, "2 &times;")
	assert.Contains(t, msg.HTML, "30.00", "capital region delivery fee")
	assert.Contains(t, msg.HTML, "70.00", "items subtotal")
	assert.Contains(t, msg.HTML, "1 Main St")
	assert.Contains(t, msg.HTML, "support@shop.test")
}

func TestSendShippedEmailIncludesTracking(t *testing.T) {
	sender := &recordingSender{}
	d := newDispatcher(t, sender)
	order := sampleOrder()
	tracking, carrier := "TRK-42", "GhanaPost"
	order.TrackingNumber = &tracking
	order.Carrier = &carrier
	order.ShippingInfo.Region = "Ashanti"

	require.NoError(t, d.Send(context.Background(), order, TemplateShipped))
	msg := sender.messages[0]
	assert.True(t, strings.HasSuffix(msg.Subject, "has shipped"))
	assert.Contains(t, msg.HTML, "TRK-42")
	assert.Contains(t, msg.HTML, "GhanaPost")
	assert.Contains(t, msg.HTML, "50.00", "standard delivery fee")
}

func TestSendRejectsIncompleteOrders(t *testing.T) {
	cases := map[string]func(o *models.Order){
		"order number":   func(o *models.Order) { o.OrderNumber = "" },
		"amount":         func(o *models.Order) { o.Amount = decimal.Zero },
		"items":          func(o *models.Order) { o.Items = nil },
		"shipping email": func(o *models.Order) { o.ShippingInfo.Email = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			sender := &recordingSender{}
			d := newDispatcher(t, sender)
			order := sampleOrder()
			mutate(order)

			err := d.Send(context.Background(), order, TemplateProcessing)
			require.ErrorIs(t, err, ErrMissingOrderDetails)
			assert.Empty(t, sender.messages, "nothing may be sent")
		})
	}

	d := newDispatcher(t, &recordingSender{})
	assert.ErrorIs(t, d.Send(context.Background(), nil, TemplateProcessing), ErrMissingOrderDetails)
}

func TestSendWrapsTransportErrors(t *testing.T) {
	transportErr := errors.New("smtp: 421 service not available")
	d := newDispatcher(t, &recordingSender{err: transportErr})

	err := d.Send(context.Background(), sampleOrder(), TemplateProcessing)
	require.ErrorIs(t, err, ErrSendFailed)
	assert.ErrorIs(t, err, transportErr)
}

func TestSendRejectsUnknownTemplate(t *testing.T) {
	d := newDispatcher(t, &recordingSender{})
	err := d.Send(context.Background(), sampleOrder(), Template("refunded"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingOrderDetails)
}

func TestNewDispatcherRequiresSender(t *testing.T) {
	_, err := NewDispatcher(DispatcherParams{})
	require.Error(t, err)
}
