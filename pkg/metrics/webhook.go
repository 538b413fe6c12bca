package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records how inbound payment webhooks were resolved.
type WebhookMetrics struct {
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Inbound payment webhook deliveries by provider and outcome.",
	}, []string{"provider", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_duration_seconds",
		Help:    "Time spent handling a payment webhook delivery.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "outcome"})
	reg.MustRegister(outcomes, duration)
	return &WebhookMetrics{outcomes: outcomes, duration: duration}
}

// Observe counts one delivery and its handling time.
func (m *WebhookMetrics) Observe(provider, outcome string, elapsed time.Duration) {
	if m == nil || m.outcomes == nil {
		return
	}
	provider, outcome = normalizeLabel(provider), normalizeLabel(outcome)
	m.outcomes.WithLabelValues(provider, outcome).Inc()
	m.duration.WithLabelValues(provider, outcome).Observe(elapsed.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
