package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/users"
	dbpkg "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (uuid.UUID, error)
}

// MaterializeInput is a verified payment folded into the fields an order needs.
type MaterializeInput struct {
	Reference             string
	Provider              string
	Channel               string
	ProviderTransactionID string
	AmountMinorUnits      int64
	Currency              string
	PaidAt                time.Time
	Items                 types.OrderItems
	ShippingInfo          types.ShippingInfo
}

// Materialized is the committed order plus the outbox row owing its confirmation email.
type Materialized struct {
	Order          *models.Order
	NotificationID uuid.UUID
}

type MaterializerParams struct {
	DB     dbpkg.Transactor
	Repo   Repository
	Users  userFinder
	Outbox outboxEmitter
	Logger *logger.Logger
	// NotificationDelay holds the email outbox row back from the relay while
	// the webhook sends the email itself.
	NotificationDelay time.Duration
	Now               func() time.Time
}

// Materializer turns a verified payment into exactly one persisted order.
type Materializer struct {
	db     dbpkg.Transactor
	repo   Repository
	users  userFinder
	outbox outboxEmitter
	logg   *logger.Logger
	delay  time.Duration
	now    func() time.Time
}

func NewMaterializer(params MaterializerParams) (*Materializer, error) {
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repo == nil {
		return nil, errors.New("orders repository is required")
	}
	if params.Users == nil {
		return nil, errors.New("users repository is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox service is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Materializer{
		db:     params.DB,
		repo:   params.Repo,
		users:  params.Users,
		outbox: params.Outbox,
		logg:   logg,
		delay:  params.NotificationDelay,
		now:    now,
	}, nil
}

// Materialize resolves the buyer, then inserts the order and its
// notification_requested outbox row in one transaction. A unique violation on
// the payment reference returns ErrDuplicateReference; nothing is written on
// any error.
func (m *Materializer) Materialize(ctx context.Context, input MaterializeInput) (*Materialized, error) {
	email := strings.TrimSpace(input.ShippingInfo.Email)
	user, err := m.users.FindByEmail(ctx, email)
	if errors.Is(err, users.ErrNotFound) {
		logCtx := m.logg.WithFields(ctx, map[string]any{
			"payment_reference": input.Reference,
			"shipping_email":    email,
		})
		m.logg.Warn(logCtx, "orders.paid_without_account")
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup user: %w", ErrPersistence, err)
	}

	order := m.buildOrder(user.ID, input)

	var notificationID uuid.UUID
	err = m.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := m.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		id, err := m.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       payloads.NotificationRequestedVersion,
			Data: payloads.NotificationRequestedEvent{
				OrderID:  order.ID,
				Template: notifications.TemplateProcessing.String(),
			},
			OccurredAt: order.CreatedAt,
			Delay:      m.delay,
		})
		if err != nil {
			return fmt.Errorf("emit notification: %w", err)
		}
		notificationID = id
		return nil
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, paymentReferenceConstraints...) {
			return nil, ErrDuplicateReference
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	m.logg.Info(m.logg.WithOrderNumber(ctx, order.OrderNumber), "orders.materialized")
	return &Materialized{Order: order, NotificationID: notificationID}, nil
}

func (m *Materializer) buildOrder(userID uuid.UUID, input MaterializeInput) *models.Order {
	now := m.now().UTC()

	items := make(types.OrderItems, len(input.Items))
	copy(items, input.Items)

	order := &models.Order{
		ID:               uuid.New(),
		OrderNumber:      NewOrderNumber(now),
		UserID:           userID,
		Status:           enums.OrderStatusConfirmed,
		DeliveryStatus:   enums.DeliveryStatusPending,
		Amount:           decimal.NewFromInt(input.AmountMinorUnits).Shift(-2),
		Currency:         strings.ToUpper(strings.TrimSpace(input.Currency)),
		Items:            items,
		ShippingInfo:     input.ShippingInfo,
		PaymentMethod:    input.Channel,
		PaymentStatus:    enums.PaymentStatusPaid,
		PaymentProvider:  input.Provider,
		PaymentReference: input.Reference,
		DeliveryNotes:    []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if input.ProviderTransactionID != "" {
		id := input.ProviderTransactionID
		order.ProviderTransactionID = &id
	}
	if !input.PaidAt.IsZero() {
		paidAt := input.PaidAt.UTC()
		order.PaidAt = &paidAt
	}
	return order
}
