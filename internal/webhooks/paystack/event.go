// Package paystackwebhook turns verified Paystack deliveries into orders.
package paystackwebhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// EventChargeSuccess is the only kind that materializes an order.
const EventChargeSuccess = "charge.success"

var (
	// ErrMalformedPayload means the body is not a Paystack event envelope.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrMissingRequiredData means a charge.success event lacks a field the order needs.
	ErrMissingRequiredData = errors.New("missing required webhook data")
)

// Event is one decoded delivery. For kinds other than charge.success only
// Kind is populated.
type Event struct {
	Kind                  string
	Reference             string
	AmountMinorUnits      int64
	Currency              string
	Channel               string
	ProviderTransactionID string
	PaidAt                time.Time
	Metadata              Metadata
}

// Metadata is the checkout payload the storefront attaches to the charge.
type Metadata struct {
	CartItems    types.OrderItems   `json:"cartItems"`
	ShippingInfo types.ShippingInfo `json:"shippingInfo"`
}

// IsChargeSuccess reports whether the event should create an order.
func (e *Event) IsChargeSuccess() bool {
	return e != nil && e.Kind == EventChargeSuccess
}

// FieldErrors lists the failing fields of a charge.success event. It matches
// ErrMissingRequiredData with errors.Is.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	return fmt.Sprintf("%s: %s", ErrMissingRequiredData, strings.Join(names, ", "))
}

func (f FieldErrors) Unwrap() error {
	return ErrMissingRequiredData
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type chargeData struct {
	Amount    json.RawMessage `json:"amount"`
	Currency  string          `json:"currency"`
	Channel   string          `json:"channel"`
	ID        json.RawMessage `json:"id"`
	PaidAt    string          `json:"paid_at"`
	Reference string          `json:"reference"`
	Metadata  json.RawMessage `json:"metadata"`
}

type chargeRequirements struct {
	Amount        string `json:"data.amount" validate:"required,number"`
	Reference     string `json:"data.reference" validate:"required"`
	ShippingEmail string `json:"data.metadata.shippingInfo.email" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// ParseEvent decodes a raw webhook body. Structural problems return
// ErrMalformedPayload; a charge.success event missing its amount, reference
// or shipping email returns FieldErrors.
func ParseEvent(raw []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	kind := strings.TrimSpace(env.Event)
	if kind == "" {
		return nil, fmt.Errorf("%w: event is required", ErrMalformedPayload)
	}
	if !isObject(env.Data) {
		return nil, fmt.Errorf("%w: data must be an object", ErrMalformedPayload)
	}
	if kind != EventChargeSuccess {
		return &Event{Kind: kind}, nil
	}

	var data chargeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	var meta Metadata
	if isObject(data.Metadata) {
		if err := json.Unmarshal(data.Metadata, &meta); err != nil {
			return nil, fmt.Errorf("%w: metadata: %w", ErrMalformedPayload, err)
		}
	}

	reqs := chargeRequirements{
		Amount:        amountLiteral(data.Amount),
		Reference:     strings.TrimSpace(data.Reference),
		ShippingEmail: strings.TrimSpace(meta.ShippingInfo.Email),
	}
	if err := validate.Struct(reqs); err != nil {
		return nil, fieldErrors(err)
	}
	amount, err := strconv.ParseInt(reqs.Amount, 10, 64)
	if err != nil {
		return nil, FieldErrors{"data.amount": "must be an integer in minor units"}
	}
	meta.ShippingInfo.Email = reqs.ShippingEmail

	event := &Event{
		Kind:                  kind,
		Reference:             reqs.Reference,
		AmountMinorUnits:      amount,
		Currency:              strings.TrimSpace(data.Currency),
		Channel:               strings.TrimSpace(data.Channel),
		ProviderTransactionID: scalarString(data.ID),
		Metadata:              meta,
	}
	if paidAt, err := time.Parse(time.RFC3339, strings.TrimSpace(data.PaidAt)); err == nil {
		event.PaidAt = paidAt
	}
	return event, nil
}

func fieldErrors(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %w", ErrMissingRequiredData, err)
	}
	out := FieldErrors{}
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "is required"
		case "number":
			out[fe.Field()] = "must be an integer in minor units"
		default:
			out[fe.Field()] = "is invalid"
		}
	}
	return out
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// amountLiteral returns the raw amount token, or "" when the field is absent
// or null. The validator's number rule then rejects quoted, negative and
// fractional amounts.
func amountLiteral(raw json.RawMessage) string {
	trimmed := string(bytes.TrimSpace(raw))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}

func scalarString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(trimmed)
}
