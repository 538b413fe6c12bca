// Package notifications composes and sends transactional order emails.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const orderDateLayout = "January 2, 2006"

var (
	// ErrMissingOrderDetails means the order lacks a field the email needs.
	// Nothing was sent.
	ErrMissingOrderDetails = errors.New("missing order details for email")
	// ErrSendFailed wraps transport failures.
	ErrSendFailed = errors.New("order email send failed")
)

// Support is the contact block printed in every email footer.
type Support struct {
	Email string
	Phone string
}

type DispatcherParams struct {
	Sender  mailer.Sender
	Fees    DeliveryFees
	Support Support
	Metrics *metrics.NotificationMetrics
	Logger  *logger.Logger
}

// Dispatcher renders an order email for a template and hands it to the mail transport.
type Dispatcher struct {
	sender  mailer.Sender
	fees    DeliveryFees
	support Support
	metrics *metrics.NotificationMetrics
	logg    *logger.Logger
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Sender == nil {
		return nil, errors.New("mail sender is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{
		sender:  params.Sender,
		fees:    params.Fees,
		support: params.Support,
		metrics: params.Metrics,
		logg:    logg,
	}, nil
}

// Send validates the order, renders tmpl and sends it to the shipping email.
// Validation failures return ErrMissingOrderDetails before any send is
// attempted; transport failures return ErrSendFailed.
func (d *Dispatcher) Send(ctx context.Context, order *models.Order, tmpl Template) error {
	if !tmpl.IsValid() {
		return fmt.Errorf("unknown email template %q", tmpl)
	}
	if missing := missingEmailFields(order); len(missing) > 0 {
		d.metrics.Inc(tmpl.String(), "invalid")
		return fmt.Errorf("%w: %s", ErrMissingOrderDetails, strings.Join(missing, ", "))
	}

	msg, err := d.compose(order, tmpl)
	if err != nil {
		d.metrics.Inc(tmpl.String(), "render_failed")
		return err
	}

	result, err := d.sender.Send(ctx, msg)
	if err != nil {
		d.metrics.Inc(tmpl.String(), "failed")
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	d.metrics.Inc(tmpl.String(), "sent")

	logCtx := d.logg.WithFields(ctx, map[string]any{
		"order_number":    order.OrderNumber,
		"email_template":  tmpl.String(),
		"mail_message_id": result.MessageID,
	})
	d.logg.Info(logCtx, "notification.email_sent")
	return nil
}

func missingEmailFields(order *models.Order) []string {
	if order == nil {
		return []string{"order"}
	}
	var missing []string
	if strings.TrimSpace(order.OrderNumber) == "" {
		missing = append(missing, "orderNumber")
	}
	if order.Amount.IsZero() {
		missing = append(missing, "amount")
	}
	if len(order.Items) == 0 {
		missing = append(missing, "items")
	}
	if strings.TrimSpace(order.ShippingInfo.Email) == "" {
		missing = append(missing, "shippingInfo.email")
	}
	return missing
}

func (d *Dispatcher) compose(order *models.Order, tmpl Template) (mailer.Message, error) {
	text := copyByTemplate[tmpl]
	currencyCode := order.Currency

	items := make([]itemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemView{
			Image:     item.Image,
			Title:     item.Title,
			Variant:   variantLabel(item.Color, item.Model),
			Quantity:  item.Quantity,
			UnitPrice: FormatMoney(item.Price, currencyCode),
			LineTotal: FormatMoney(item.LineTotal(), currencyCode),
		})
	}

	fee := d.fees.For(order.ShippingInfo.Region)
	view := emailView{
		Headline:      text.headline,
		Intro:         text.intro,
		OrderNumber:   order.OrderNumber,
		OrderDate:     orderDate(order).Format(orderDateLayout),
		Items:         items,
		Subtotal:      FormatMoney(order.Items.Subtotal(), currencyCode),
		DeliveryFee:   FormatMoney(fee, currencyCode),
		Total:         FormatMoney(order.Amount, currencyCode),
		RecipientName: order.ShippingInfo.Name,
		AddressLines:  order.ShippingInfo.AddressLines(),
		Phone:         order.ShippingInfo.Phone,
		SupportEmail:  d.support.Email,
		SupportPhone:  d.support.Phone,
	}
	if tmpl == TemplateShipped {
		view.TrackingNumber = deref(order.TrackingNumber)
		view.Carrier = deref(order.Carrier)
	}

	html, err := renderEmail(view)
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      strings.TrimSpace(order.ShippingInfo.Email),
		ToName:  order.ShippingInfo.Name,
		Subject: fmt.Sprintf(text.subject, order.OrderNumber),
		HTML:    html,
	}, nil
}

func orderDate(order *models.Order) time.Time {
	if !order.CreatedAt.IsZero() {
		return order.CreatedAt
	}
	if order.PaidAt != nil {
		return *order.PaidAt
	}
	return time.Now()
}

func variantLabel(color, model *string) string {
	parts := make([]string, 0, 2)
	if c := deref(color); c != "" {
		parts = append(parts, c)
	}
	if m := deref(model); m != "" {
		parts = append(parts, m)
	}
	return strings.Join(parts, " / ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
