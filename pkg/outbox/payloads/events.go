package payloads

import "github.com/google/uuid"

const NotificationRequestedVersion = 1

// NotificationRequestedEvent asks for the named email template to be sent for an order.
type NotificationRequestedEvent struct {
	OrderID  uuid.UUID `json:"orderId"`
	Template string    `json:"template"`
}
