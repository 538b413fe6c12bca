package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// StatusChange moves an order to a new lifecycle state. Updates carries
// optional delivery columns such as tracking_number or carrier.
type StatusChange struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Updates map[string]any
}

// ChangeStatus updates the order and queues the matching customer email in
// the same transaction. The notification worker delivers it.
func (m *Materializer) ChangeStatus(ctx context.Context, change StatusChange) error {
	if !change.Status.IsValid() {
		return fmt.Errorf("invalid order status %q", change.Status)
	}
	tmpl, notify := notifications.TemplateForStatus(change.Status)

	return m.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := m.repo.WithTx(tx).UpdateStatus(ctx, change.OrderID, change.Status, change.Updates); err != nil {
			return err
		}
		if !notify {
			return nil
		}
		_, err := m.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateOrder,
			AggregateID:   change.OrderID,
			Version:       payloads.NotificationRequestedVersion,
			Data: payloads.NotificationRequestedEvent{
				OrderID:  change.OrderID,
				Template: tmpl.String(),
			},
			OccurredAt: m.now().UTC(),
		})
		return err
	})
}
