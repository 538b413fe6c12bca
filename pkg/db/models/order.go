package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is the durable record of a paid checkout. Items and ShippingInfo are
// snapshots taken when the payment was confirmed.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber    string               `gorm:"column:order_number;type:text;not null"`
	UserID         uuid.UUID            `gorm:"column:user_id;type:uuid;not null"`
	Status         enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'confirmed'"`
	DeliveryStatus enums.DeliveryStatus `gorm:"column:delivery_status;type:text;not null;default:'pending'"`
	Amount         decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency       string               `gorm:"column:currency;type:text;not null"`
	Items          types.OrderItems     `gorm:"column:items;type:jsonb;serializer:json;not null"`
	ShippingInfo   types.ShippingInfo   `gorm:"column:shipping_info;type:jsonb;serializer:json;not null"`

	PaymentMethod         string              `gorm:"column:payment_method;type:text"`
	PaymentStatus         enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	PaymentProvider       string              `gorm:"column:payment_provider;type:text;not null"`
	PaymentReference      string              `gorm:"column:payment_reference;type:text;not null"`
	ProviderTransactionID *string             `gorm:"column:provider_transaction_id;type:text"`
	PaidAt                *time.Time          `gorm:"column:paid_at"`

	EstimatedDeliveryDate *time.Time `gorm:"column:estimated_delivery_date"`
	ActualDeliveryDate    *time.Time `gorm:"column:actual_delivery_date"`
	TrackingNumber        *string    `gorm:"column:tracking_number"`
	Carrier               *string    `gorm:"column:carrier"`
	DeliveryNotes         []string   `gorm:"column:delivery_notes;type:jsonb;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
