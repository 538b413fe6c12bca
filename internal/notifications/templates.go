package notifications

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Template names an order email.
type Template string

const (
	TemplateProcessing Template = "processing"
	TemplateShipped    Template = "shipped"
	TemplateDelivered  Template = "delivered"
	TemplateCancelled  Template = "cancelled"
)

var validTemplates = []Template{
	TemplateProcessing,
	TemplateShipped,
	TemplateDelivered,
	TemplateCancelled,
}

func (t Template) String() string {
	return string(t)
}

func (t Template) IsValid() bool {
	for _, candidate := range validTemplates {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseTemplate(value string) (Template, error) {
	for _, candidate := range validTemplates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid email template %q", value)
}

// TemplateForStatus maps an order lifecycle state to the email announcing it.
func TemplateForStatus(status enums.OrderStatus) (Template, bool) {
	switch status {
	case enums.OrderStatusConfirmed, enums.OrderStatusProcessing:
		return TemplateProcessing, true
	case enums.OrderStatusShipped:
		return TemplateShipped, true
	case enums.OrderStatusDelivered:
		return TemplateDelivered, true
	case enums.OrderStatusCancelled:
		return TemplateCancelled, true
	default:
		return "", false
	}
}

type copyText struct {
	subject  string
	headline string
	intro    string
}

var copyByTemplate = map[Template]copyText{
	TemplateProcessing: {
		subject:  "Your order %s is being processed",
		headline: "Thank you for your order!",
		intro:    "We have received your payment and are getting your order ready.",
	},
	TemplateShipped: {
		subject:  "Your order %s has shipped",
		headline: "Your order is on its way",
		intro:    "Good news! Your order has left our warehouse.",
	},
	TemplateDelivered: {
		subject:  "Your order %s has been delivered",
		headline: "Your order has arrived",
		intro:    "Your order has been delivered. We hope you enjoy it.",
	},
	TemplateCancelled: {
		subject:  "Your order %s has been cancelled",
		headline: "Your order was cancelled",
		intro:    "Your order has been cancelled. If you were charged, a refund will follow.",
	},
}

type itemView struct {
	Image     string
	Title     string
	Variant   string
	Quantity  int
	UnitPrice string
	LineTotal string
}

type emailView struct {
	Headline       string
	Intro          string
	OrderNumber    string
	OrderDate      string
	Items          []itemView
	Subtotal       string
	DeliveryFee    string
	Total          string
	RecipientName  string
	AddressLines   []string
	Phone          string
	TrackingNumber string
	Carrier        string
	SupportEmail   string
	SupportPhone   string
}

const emailLayout = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937; background: #f9fafb; padding: 24px;">
  <div style="max-width: 600px; margin: 0 auto; background: #ffffff; padding: 24px; border-radius: 8px;">
    <h1 style="font-size: 22px;">{{.Headline}}</h1>
    <p>{{.Intro}}</p>
    <p><strong>Order ID:</strong> {{.OrderNumber}}<br><strong>Order date:</strong> {{.OrderDate}}</p>
    {{- if .TrackingNumber}}
    <p><strong>Tracking number:</strong> {{.TrackingNumber}}{{if .Carrier}} ({{.Carrier}}){{end}}</p>
    {{- end}}
    <table style="width: 100%; border-collapse: collapse;">
      {{- range .Items}}
      <tr>
        <td style="padding: 8px 0; width: 64px;">{{if .Image}}<img src="{{.Image}}" alt="{{.Title}}" width="56" height="56">{{end}}</td>
        <td style="padding: 8px;">{{.Title}}{{if .Variant}}<br><small>{{.Variant}}</small>{{end}}<br><small>{{.Quantity}} &times; {{.UnitPrice}}</small></td>
        <td style="padding: 8px 0; text-align: right;">{{.LineTotal}}</td>
      </tr>
      {{- end}}
    </table>
    <table style="width: 100%; margin-top: 16px;">
      <tr><td>Subtotal</td><td style="text-align: right;">{{.Subtotal}}</td></tr>
      <tr><td>Delivery fee</td><td style="text-align: right;">{{.DeliveryFee}}</td></tr>
      <tr><td><strong>Total paid</strong></td><td style="text-align: right;"><strong>{{.Total}}</strong></td></tr>
    </table>
    <h2 style="font-size: 16px; margin-top: 24px;">Shipping to</h2>
    <p>{{.RecipientName}}{{range .AddressLines}}<br>{{.}}{{end}}{{if .Phone}}<br>{{.Phone}}{{end}}</p>
    <hr>
    <p style="font-size: 12px; color: #6b7280;">Questions? Contact us at <a href="mailto:{{.SupportEmail}}">{{.SupportEmail}}</a>{{if .SupportPhone}} or {{.SupportPhone}}{{end}}.</p>
  </div>
</body>
</html>`

var emailTemplate = template.Must(template.New("order-email").Parse(emailLayout))

func renderEmail(view emailView) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render order email: %w", err)
	}
	return buf.String(), nil
}
