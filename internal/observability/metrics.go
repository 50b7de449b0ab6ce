// Package observability groups the service's Prometheus instruments
// and keeps a rolling per-stage latency window for the perf endpoint.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. The
// helper methods tolerate a nil receiver so instrumentation can be
// switched off in tests.
type Metrics struct {
	GenerateRequests *prometheus.CounterVec
	CacheEvents      *prometheus.CounterVec
	PlatformFailures *prometheus.CounterVec
	FeedbackReports  prometheus.Counter
	GenerateDuration prometheus.Histogram
	MemoryEntries    prometheus.Gauge
	CacheEntries     prometheus.Gauge
	FeedbackEntries  prometheus.Gauge

	stages *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		GenerateRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generate_requests_total",
			Help:      "Generation requests by outcome.",
		}, []string{"outcome"}),
		CacheEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Result cache lookups by result.",
		}, []string{"result"}),
		PlatformFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_failures_total",
			Help:      "Per-platform generation failures.",
		}, []string{"platform"}),
		FeedbackReports: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_reports_total",
			Help:      "Accepted feedback reports.",
		}),
		GenerateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "End-to-end generation latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}),
		MemoryEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_entries",
			Help:      "Generation records currently held by the memory store.",
		}),
		CacheEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Entries currently held by the result cache.",
		}),
		FeedbackEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feedback_entries",
			Help:      "Stored feedback records.",
		}),
		stages: newStageWindow(256),
	}
}

// ObserveGenerate records one finished generate call.
func (m *Metrics) ObserveGenerate(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.GenerateRequests.WithLabelValues(outcome).Inc()
	m.GenerateDuration.Observe(d.Seconds())
	m.stages.Observe("request_total", float64(d.Milliseconds()))
}

// CacheLookup records a result-cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheEvents.WithLabelValues(result).Inc()
}

// PlatformFailure records one failed per-platform work unit.
func (m *Metrics) PlatformFailure(platform string) {
	if m == nil {
		return
	}
	m.PlatformFailures.WithLabelValues(platform).Inc()
	m.stages.ObserveIndicator("platform_failure")
}

// FeedbackRecorded counts an accepted feedback report.
func (m *Metrics) FeedbackRecorded() {
	if m == nil {
		return
	}
	m.FeedbackReports.Inc()
}

func (m *Metrics) SetMemoryEntries(n int) {
	if m == nil {
		return
	}
	m.MemoryEntries.Set(float64(n))
}

func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}
	m.CacheEntries.Set(float64(n))
}

func (m *Metrics) SetFeedbackEntries(n int) {
	if m == nil {
		return
	}
	m.FeedbackEntries.Set(float64(n))
}

// ObserveStage records one stage duration in the rolling window.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stages.Observe(stage, float64(d.Milliseconds()))
}

// ObserveIndicator counts a named condition in the rolling window.
func (m *Metrics) ObserveIndicator(name string) {
	if m == nil {
		return
	}
	m.stages.ObserveIndicator(name)
}

// SnapshotStages returns the current rolling latency snapshot.
func (m *Metrics) SnapshotStages() StageSnapshot {
	if m == nil {
		return StageSnapshot{}
	}
	return m.stages.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
