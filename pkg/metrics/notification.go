package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotificationMetrics counts transactional email attempts.
type NotificationMetrics struct {
	sent *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_emails_total",
		Help: "Order emails by template and result.",
	}, []string{"template", "result"})
	reg.MustRegister(sent)
	return &NotificationMetrics{sent: sent}
}

func (m *NotificationMetrics) Inc(template, result string) {
	if m == nil || m.sent == nil {
		return
	}
	m.sent.WithLabelValues(normalizeLabel(template), normalizeLabel(result)).Inc()
}
