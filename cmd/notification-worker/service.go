package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const (
	defaultBatchSize   = 25
	defaultPollMs      = 1000
	defaultMaxAttempts = 8
	sendTimeout        = 30 * time.Second
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
	retryBaseDelay     = 30 * time.Second
	retryMaxDelay      = 30 * time.Minute
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchPendingTx(tx *gorm.DB, eventType enums.OutboxEventType, now time.Time, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error, nextAttempt time.Time) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type eventDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (any, error)
}

type notificationSender interface {
	Send(ctx context.Context, order *models.Order, tmpl notifications.Template) error
}

// errNotRetryable marks failures that another attempt cannot fix.
var errNotRetryable = errors.New("not retryable")

type ServiceParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            dbClient
	Repository    outboxRepository
	Registry      eventDecoder
	Orders        orders.Repository
	Notifications notificationSender
	Metrics       *metrics.RelayMetrics
	Now           func() time.Time
}

// Service drains notification_requested outbox rows and sends the emails
// they owe.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	registry     eventDecoder
	orders       orders.Repository
	notify       notificationSender
	metrics      *metrics.RelayMetrics
	now          func() time.Time
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Registry == nil {
		return nil, errors.New("event registry is required")
	}
	if params.Orders == nil {
		return nil, errors.New("orders repository is required")
	}
	if params.Notifications == nil {
		return nil, errors.New("notification dispatcher is required")
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		registry:     params.Registry,
		orders:       params.Orders,
		notify:       params.Notifications,
		metrics:      params.Metrics,
		now:          now,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "notification worker context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.metrics.IncBatchFailure()
			s.logg.Error(ctx, "notification worker batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval
		if processed {
			continue
		}
		if err := sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// processBatch works through up to batchSize due rows. Each row is claimed,
// sent and marked in its own transaction, so a failed mark only rolls back
// that row and never re-queues emails already delivered.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	for i := 0; i < s.batchSize; i++ {
		handled, err := s.processOne(ctx)
		if err != nil {
			return processed, err
		}
		if !handled {
			break
		}
		processed = true
	}
	return processed, nil
}

// processOne claims the oldest due row and leaves it published, rescheduled
// or terminal. It reports false when nothing is due.
func (s *Service) processOne(ctx context.Context) (bool, error) {
	handled := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchPendingTx(tx, enums.EventNotificationRequested, s.now(), 1, s.maxAttempts)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		handled = true
		event := events[0]

		fields := eventFields(event)
		sendErr := s.deliver(ctx, tx, event, fields)
		if sendErr == nil {
			if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
				return fmt.Errorf("mark published %s: %w", event.ID, err)
			}
			s.metrics.IncEvent("sent")
			s.logg.Info(s.logg.WithFields(ctx, fields), "notification delivered")
			return nil
		}

		nextAttempt := event.AttemptCount + 1
		fields["attempt_count"] = nextAttempt
		logCtx := s.logg.WithField(s.logg.WithFields(ctx, fields), "error", sendErr.Error())

		if errors.Is(sendErr, errNotRetryable) || nextAttempt >= s.maxAttempts {
			s.logg.Warn(logCtx, "notification will not be retried")
			if err := s.repo.MarkTerminalTx(tx, event.ID, sendErr, s.maxAttempts); err != nil {
				return fmt.Errorf("mark terminal %s: %w", event.ID, err)
			}
			s.metrics.IncEvent("terminal")
			return nil
		}

		s.logg.Warn(logCtx, "notification send failed")
		if err := s.repo.MarkFailedTx(tx, event.ID, sendErr, s.now().Add(retryDelay(event.AttemptCount))); err != nil {
			return fmt.Errorf("mark failure %s: %w", event.ID, err)
		}
		s.metrics.IncEvent("retried")
		return nil
	})
	return handled, err
}

func (s *Service) deliver(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, fields map[string]any) error {
	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return fmt.Errorf("%w: %w", errNotRetryable, err)
	}
	fields["event_id"] = envelope.EventID

	decoded, err := s.registry.Decode(event.EventType, envelope.Version, envelope.Data)
	if err != nil {
		return fmt.Errorf("%w: %w", errNotRetryable, err)
	}
	request, ok := decoded.(payloads.NotificationRequestedEvent)
	if !ok {
		return fmt.Errorf("%w: unexpected payload %T", errNotRetryable, decoded)
	}
	tmpl, err := notifications.ParseTemplate(request.Template)
	if err != nil {
		return fmt.Errorf("%w: %w", errNotRetryable, err)
	}
	fields["email_template"] = tmpl.String()

	order, err := s.orders.WithTx(tx).FindByID(ctx, request.OrderID)
	if errors.Is(err, orders.ErrNotFound) {
		return fmt.Errorf("%w: order %s: %w", errNotRetryable, request.OrderID, err)
	}
	if err != nil {
		return fmt.Errorf("load order %s: %w", request.OrderID, err)
	}
	fields["order_number"] = order.OrderNumber

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := s.notify.Send(sendCtx, order, tmpl); err != nil {
		if errors.Is(err, notifications.ErrMissingOrderDetails) {
			return fmt.Errorf("%w: %w", errNotRetryable, err)
		}
		return err
	}
	return nil
}

func eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    event.EventType,
		"aggregate_id":  event.AggregateID.String(),
		"attempt_count": event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

// retryDelay doubles from retryBaseDelay per prior attempt, capped at retryMaxDelay.
func retryDelay(attempts int) time.Duration {
	delay := retryBaseDelay
	for i := 0; i < attempts && delay < retryMaxDelay; i++ {
		delay *= 2
	}
	if delay > retryMaxDelay {
		return retryMaxDelay
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}
