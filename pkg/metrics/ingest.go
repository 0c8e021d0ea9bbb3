package metrics

import "github.com/prometheus/client_golang/prometheus"

// Import outcomes for upstream booking records.
const (
	RecordNew     = "new"
	RecordSkipped = "skipped"
	RecordFailed  = "failed"
)

// IngestMetrics counts upstream fetch passes and the fate of each record.
type IngestMetrics struct {
	records *prometheus.CounterVec
	passes  *prometheus.CounterVec
}

func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	if reg == nil {
		return &IngestMetrics{}
	}
	m := &IngestMetrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_total",
			Help:      "Upstream booking records by import outcome.",
		}, []string{"outcome"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "fetch_passes_total",
			Help:      "Upstream fetch passes by whether the feed could be read.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.records, m.passes)
	return m
}

// ObservePass records one fetch pass. Counts are ignored when the upstream
// read failed.
func (m *IngestMetrics) ObservePass(upstreamOK bool, imported, skipped, failed int) {
	if m == nil || m.passes == nil {
		return
	}
	m.passes.WithLabelValues(outcomeLabel(upstreamOK)).Inc()
	if !upstreamOK {
		return
	}
	m.records.WithLabelValues(RecordNew).Add(float64(imported))
	m.records.WithLabelValues(RecordSkipped).Add(float64(skipped))
	m.records.WithLabelValues(RecordFailed).Add(float64(failed))
}
