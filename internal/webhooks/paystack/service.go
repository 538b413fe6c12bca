package paystackwebhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Provider is stored as the order's payment provider.
const Provider = "paystack"

type idempotencyGuard interface {
	Exists(ctx context.Context, reference string) (bool, error)
	MarkProcessed(ctx context.Context, reference string)
}

type orderMaterializer interface {
	Materialize(ctx context.Context, input orders.MaterializeInput) (*orders.Materialized, error)
}

type notificationSender interface {
	Send(ctx context.Context, order *models.Order, tmpl notifications.Template) error
}

type notificationLedger interface {
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	MarkUndeliverable(ctx context.Context, id uuid.UUID, cause error, terminalAttempts int) error
}

// Outcome names how a charge.success delivery was resolved.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeDuplicate Outcome = "duplicate"
)

type Result struct {
	Outcome Outcome
	Order   *models.Order
}

type ServiceParams struct {
	Guard         idempotencyGuard
	Materializer  orderMaterializer
	Notifications notificationSender
	Outbox        notificationLedger
	// MaxAttempts is written to the outbox row when its email can never be
	// composed, so the worker skips it.
	MaxAttempts int
	Logger      *logger.Logger
}

type Service struct {
	guard        idempotencyGuard
	materializer orderMaterializer
	notify       notificationSender
	outbox       notificationLedger
	maxAttempts  int
	logg         *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Guard == nil {
		return nil, errors.New("idempotency guard is required")
	}
	if params.Materializer == nil {
		return nil, errors.New("order materializer is required")
	}
	if params.Notifications == nil {
		return nil, errors.New("notification dispatcher is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox service is required")
	}
	if params.MaxAttempts <= 0 {
		return nil, errors.New("max attempts must be positive")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		guard:        params.Guard,
		materializer: params.Materializer,
		notify:       params.Notifications,
		outbox:       params.Outbox,
		maxAttempts:  params.MaxAttempts,
		logg:         logg,
	}, nil
}

// HandleChargeSuccess creates the order for a verified charge.success event
// and sends its confirmation email. Once the order is committed a non-nil
// Result is returned even when the email fails; the error then carries
// notifications.ErrMissingOrderDetails or notifications.ErrSendFailed.
func (s *Service) HandleChargeSuccess(ctx context.Context, event *Event) (*Result, error) {
	if !event.IsChargeSuccess() {
		return nil, fmt.Errorf("%w: expected %s event", ErrMalformedPayload, EventChargeSuccess)
	}

	exists, err := s.guard.Exists(ctx, event.Reference)
	if err != nil {
		return nil, fmt.Errorf("%w: idempotency check: %w", orders.ErrPersistence, err)
	}
	if exists {
		s.logg.Info(ctx, "webhook.duplicate_reference")
		return &Result{Outcome: OutcomeDuplicate}, nil
	}

	created, err := s.materializer.Materialize(ctx, materializeInput(event))
	if errors.Is(err, orders.ErrDuplicateReference) {
		s.guard.MarkProcessed(ctx, event.Reference)
		s.logg.Info(ctx, "webhook.duplicate_reference_on_insert")
		return &Result{Outcome: OutcomeDuplicate}, nil
	}
	if err != nil {
		return nil, err
	}
	s.guard.MarkProcessed(ctx, event.Reference)

	result := &Result{Outcome: OutcomeCreated, Order: created.Order}
	ctx = s.logg.WithOrderNumber(ctx, created.Order.OrderNumber)

	sendErr := s.notify.Send(ctx, created.Order, notifications.TemplateProcessing)
	switch {
	case sendErr == nil:
		if err := s.outbox.MarkDelivered(ctx, created.NotificationID); err != nil {
			s.logg.Error(ctx, "webhook.notification_mark_delivered_failed", err)
		}
		return result, nil
	case errors.Is(sendErr, notifications.ErrMissingOrderDetails):
		if err := s.outbox.MarkUndeliverable(ctx, created.NotificationID, sendErr, s.maxAttempts); err != nil {
			s.logg.Error(ctx, "webhook.notification_mark_undeliverable_failed", err)
		}
		return result, sendErr
	default:
		// Left pending; the notification worker retries once the grace period ends.
		s.logg.Warn(ctx, "webhook.notification_deferred")
		return result, sendErr
	}
}

func materializeInput(event *Event) orders.MaterializeInput {
	return orders.MaterializeInput{
		Reference:             event.Reference,
		Provider:              Provider,
		Channel:               event.Channel,
		ProviderTransactionID: event.ProviderTransactionID,
		AmountMinorUnits:      event.AmountMinorUnits,
		Currency:              event.Currency,
		PaidAt:                event.PaidAt,
		Items:                 event.Metadata.CartItems,
		ShippingInfo:          event.Metadata.ShippingInfo,
	}
}
