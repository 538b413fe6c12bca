package orders

import "errors"

var (
	// ErrUserNotFound means no account matches the shipping email of a paid order.
	ErrUserNotFound = errors.New("user not found for payment")
	// ErrDuplicateReference means an order already exists for the payment reference.
	ErrDuplicateReference = errors.New("order already exists for payment reference")
	// ErrPersistence wraps storage failures. No order was written.
	ErrPersistence = errors.New("order persistence failed")
	ErrNotFound    = errors.New("order not found")
)

// Unique constraint on orders.payment_reference, by Postgres name and by the
// table.column form SQLite reports.
var paymentReferenceConstraints = []string{"ux_orders_payment_reference", "orders.payment_reference"}
