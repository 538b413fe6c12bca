package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics tracks the outbox relay loop.
type RelayMetrics struct {
	events  *prometheus.CounterVec
	batches prometheus.Counter
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	if reg == nil {
		return &RelayMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_relay_events_total",
		Help: "Outbox rows handled by the relay, by result.",
	}, []string{"result"})
	batches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_relay_batch_failures_total",
		Help: "Relay batches that failed as a whole.",
	})
	reg.MustRegister(events, batches)
	return &RelayMetrics{events: events, batches: batches}
}

// IncEvent counts one row as published, retried or terminal.
func (m *RelayMetrics) IncEvent(result string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *RelayMetrics) IncBatchFailure() {
	if m == nil || m.batches == nil {
		return
	}
	m.batches.Inc()
}
