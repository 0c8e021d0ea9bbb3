package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fieldops"

// CronJobMetrics tracks the scheduled upstream fetch and any other cron jobs.
type CronJobMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	skipped     prometheus.Counter
}

// NewCronJobMetrics registers the cron metrics on reg. A nil registerer
// yields a no-op recorder.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_duration_seconds",
			Help:      "Duration of cron job runs.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_runs_total",
			Help:      "Cron job runs by outcome.",
		}, []string{"job", "outcome"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run per job.",
		}, []string{"job"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "cycles_skipped_total",
			Help:      "Cycles skipped because another instance held the lock.",
		}),
	}
	reg.MustRegister(m.duration, m.runs, m.lastSuccess, m.skipped)
	return m
}

// ObserveRun records one job run finishing at finishedAt.
func (c *CronJobMetrics) ObserveRun(job string, success bool, elapsed time.Duration, finishedAt time.Time) {
	if c == nil || c.runs == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	c.runs.WithLabelValues(job, outcomeLabel(success)).Inc()
	if success {
		c.lastSuccess.WithLabelValues(job).Set(float64(finishedAt.Unix()))
	}
}

// IncSkippedCycle counts a cycle that found the lock taken.
func (c *CronJobMetrics) IncSkippedCycle() {
	if c == nil || c.skipped == nil {
		return
	}
	c.skipped.Inc()
}

func outcomeLabel(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
