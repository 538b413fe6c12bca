package paystackwebhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/users"
	dbpkg "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

const testMaxAttempts = 5

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

type stack struct {
	conn   *gorm.DB
	sender *recordingSender
	store  *memoryStore
	svc    *Service
}

func newStack(t *testing.T) *stack {
	t.Helper()
	conn := dbtest.Open(t)
	require.NoError(t, conn.Create(&models.User{ID: uuid.New(), Email: "a@b.com", FirstName: "A", LastName: "B"}).Error)

	orderRepo := orders.NewRepository(conn)
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)
	materializer, err := orders.NewMaterializer(orders.MaterializerParams{
		DB:                dbpkg.FromGorm(conn),
		Repo:              orderRepo,
		Users:             users.NewRepository(conn),
		Outbox:            outboxSvc,
		NotificationDelay: time.Minute,
	})
	require.NoError(t, err)

	sender := &recordingSender{}
	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Sender: sender,
		Fees: notifications.DeliveryFees{
			CapitalRegion: "Greater Accra",
			Capital:       decimal.NewFromInt(30),
			Standard:      decimal.NewFromInt(50),
		},
		Support: notifications.Support{Email: "support@shop.test"},
	})
	require.NoError(t, err)

	store := newMemoryStore()
	guard, err := NewIdempotencyGuard(store, orderRepo, time.Hour, nil)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Guard:         guard,
		Materializer:  materializer,
		Notifications: dispatcher,
		Outbox:        outboxSvc,
		MaxAttempts:   testMaxAttempts,
	})
	require.NoError(t, err)

	return &stack{conn: conn, sender: sender, store: store, svc: svc}
}

func (s *stack) outboxRows(t *testing.T) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, s.conn.Find(&rows).Error)
	return rows
}

func (s *stack) orderCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, s.conn.Model(&models.Order{}).Count(&count).Error)
	return count
}

func parsedEvent(t *testing.T) *Event {
	t.Helper()
	event, err := ParseEvent([]byte(chargeSuccessBody))
	require.NoError(t, err)
	return event
}

func TestHandleChargeSuccessCreatesOrderAndSendsEmail(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	result, err := s.svc.HandleChargeSuccess(ctx, parsedEvent(t))
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, result.Outcome)

	order := result.Order
	assert.Equal(t, enums.OrderStatusConfirmed, order.Status)
	assert.Equal(t, enums.DeliveryStatusPending, order.DeliveryStatus)
	assert.True(t, order.Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "REF123", order.PaymentReference)
	assert.Equal(t, Provider, order.PaymentProvider)
	assert.Equal(t, "mobile_money", order.PaymentMethod)

	require.Len(t, s.sender.messages, 1)
	msg := s.sender.messages[0]
	assert.Equal(t, "a@b.com", msg.To)
	assert.Contains(t, msg.HTML, order.OrderNumber)
	assert.Contains(t, msg.HTML, "Cable")
	assert.Contains(t, msg.HTML, "Adapter")

	rows := s.outboxRows(t)
	require.Len(t, rows, 1)
	assert.NotNil(t, rows[0].PublishedAt)
	assert.Contains(t, s.store.values, "sf:idempotency:paystack-webhook:REF123")
}

func TestHandleChargeSuccessIsIdempotent(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.svc.HandleChargeSuccess(ctx, parsedEvent(t))
	require.NoError(t, err)

	result, err := s.svc.HandleChargeSuccess(ctx, parsedEvent(t))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, result.Outcome)
	assert.EqualValues(t, 1, s.orderCount(t))
	assert.Len(t, s.sender.messages, 1)

	// Without the cache the database still answers.
	delete(s.store.values, "sf:idempotency:paystack-webhook:REF123")
	result, err = s.svc.HandleChargeSuccess(ctx, parsedEvent(t))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, result.Outcome)
	assert.Len(t, s.sender.messages, 1)
}

func TestHandleChargeSuccessUnknownUser(t *testing.T) {
	s := newStack(t)
	event := parsedEvent(t)
	event.Metadata.ShippingInfo.Email = "ghost@example.com"

	_, err := s.svc.HandleChargeSuccess(context.Background(), event)
	require.ErrorIs(t, err, orders.ErrUserNotFound)
	assert.Zero(t, s.orderCount(t))
	assert.Empty(t, s.sender.messages)
}

func TestHandleChargeSuccessSendFailureLeavesOutboxPending(t *testing.T) {
	s := newStack(t)
	s.sender.err = errors.New("smtp: 421 try later")

	result, err := s.svc.HandleChargeSuccess(context.Background(), parsedEvent(t))
	require.ErrorIs(t, err, notifications.ErrSendFailed)
	require.NotNil(t, result)
	assert.Equal(t, OutcomeCreated, result.Outcome)
	assert.EqualValues(t, 1, s.orderCount(t))

	rows := s.outboxRows(t)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].PublishedAt)
	assert.Zero(t, rows[0].AttemptCount)
}

func TestHandleChargeSuccessMissingEmailDetails(t *testing.T) {
	s := newStack(t)
	event := parsedEvent(t)
	event.Metadata.CartItems = nil

	result, err := s.svc.HandleChargeSuccess(context.Background(), event)
	require.ErrorIs(t, err, notifications.ErrMissingOrderDetails)
	require.NotNil(t, result)
	assert.EqualValues(t, 1, s.orderCount(t), "order stays committed")
	assert.Empty(t, s.sender.messages)

	rows := s.outboxRows(t)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].PublishedAt)
	assert.Equal(t, testMaxAttempts, rows[0].AttemptCount)
	require.NotNil(t, rows[0].LastError)
}

func TestHandleChargeSuccessRejectsOtherKinds(t *testing.T) {
	s := newStack(t)
	_, err := s.svc.HandleChargeSuccess(context.Background(), &Event{Kind: "charge.failed"})
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
