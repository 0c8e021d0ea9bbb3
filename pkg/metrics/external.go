package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ExternalCallMetrics counts calls to third-party HTTP dependencies (geocoder,
// directions optimizer, upstream bookings feed).
type ExternalCallMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewExternalCallMetrics registers the external call metrics on reg.
func NewExternalCallMetrics(reg prometheus.Registerer) *ExternalCallMetrics {
	if reg == nil {
		return &ExternalCallMetrics{}
	}
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "external_calls_total",
		Help:      "Outbound dependency calls by service, operation and outcome.",
	}, []string{"service", "operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "external_call_duration_seconds",
		Help:      "Latency of outbound dependency calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service", "operation"})
	reg.MustRegister(calls, duration)
	return &ExternalCallMetrics{calls: calls, duration: duration}
}

// Observe records one call.
func (m *ExternalCallMetrics) Observe(service, operation string, success bool, elapsed time.Duration) {
	if m == nil || m.calls == nil {
		return
	}
	m.calls.WithLabelValues(normalizeLabel(service), normalizeLabel(operation), outcomeLabel(success)).Inc()
	m.duration.WithLabelValues(normalizeLabel(service), normalizeLabel(operation)).Observe(elapsed.Seconds())
}
