package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordsRunsAndLastSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "upstream-fetch"
	finished := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	m.ObserveRun(job, true, 250*time.Millisecond, finished)
	m.ObserveRun(job, false, time.Second, finished.Add(time.Minute))
	m.IncSkippedCycle()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "fieldops_cron_job_runs_total", "outcome", OutcomeSuccess); err != nil || got != 1 {
		t.Fatalf("expected one success, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "fieldops_cron_job_runs_total", "outcome", OutcomeFailure); err != nil || got != 1 {
		t.Fatalf("expected one failure, got %f err=%v", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "fieldops_cron_job_duration_seconds", "job", job); err != nil || got != 1.25 {
		t.Fatalf("expected duration sum 1.25, got %f err=%v", got, err)
	}

	gauge := findMetricFamily(mfs, "fieldops_cron_job_last_success_timestamp_seconds")
	if gauge == nil || len(gauge.GetMetric()) != 1 {
		t.Fatalf("expected one last-success series")
	}
	if got := gauge.GetMetric()[0].GetGauge().GetValue(); got != float64(finished.Unix()) {
		t.Fatalf("failed run must not move last success, got %f", got)
	}

	skipped := findMetricFamily(mfs, "fieldops_cron_cycles_skipped_total")
	if skipped == nil || skipped.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one skipped cycle")
	}
}

func TestIngestMetricsCountsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIngestMetrics(reg)
	m.ObservePass(true, 3, 2, 1)
	m.ObservePass(false, 99, 99, 99)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for outcome, want := range map[string]float64{RecordNew: 3, RecordSkipped: 2, RecordFailed: 1} {
		if got, err := fetchCounterValue(mfs, "fieldops_ingest_records_total", "outcome", outcome); err != nil || got != want {
			t.Fatalf("%s: expected %f, got %f err=%v", outcome, want, got, err)
		}
	}
	if got, err := fetchCounterValue(mfs, "fieldops_ingest_fetch_passes_total", "outcome", OutcomeFailure); err != nil || got != 1 {
		t.Fatalf("expected one failed pass, got %f err=%v", got, err)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestExternalCallMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewExternalCallMetrics(reg)
	m.Observe("geocoder", "geocode", true, 10*time.Millisecond)
	m.Observe("geocoder", "geocode", false, 10*time.Millisecond)
	m.Observe("geocoder", "geocode", false, 10*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "fieldops_external_calls_total")
	if mf == nil {
		t.Fatalf("fieldops_external_calls_total not registered")
	}
	var failures float64
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), "outcome", OutcomeFailure) {
			failures = metric.GetCounter().GetValue()
		}
	}
	if failures != 2 {
		t.Fatalf("expected 2 failures, got %f", failures)
	}
}

func TestExternalCallMetricsNilSafe(t *testing.T) {
	var m *ExternalCallMetrics
	m.Observe("upstream", "fetch", true, time.Second)
	NewExternalCallMetrics(nil).Observe("upstream", "fetch", true, time.Second)
	NewCronJobMetrics(nil).ObserveRun("upstream-fetch", true, time.Second, time.Now())
	var ingest *IngestMetrics
	ingest.ObservePass(true, 1, 0, 0)
}
