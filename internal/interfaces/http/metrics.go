package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"
)

// MetricsRegistry holds all Prometheus metrics for SpreadRun
type MetricsRegistry struct {
	// Evaluation pipeline metrics
	Evaluations *prometheus.CounterVec
	Rejections  *prometheus.CounterVec
	MidSources  *prometheus.CounterVec
	Verdicts    *prometheus.CounterVec

	// Scan-level metrics
	ScanDuration prometheus.Histogram
	ActiveScans  prometheus.Gauge
	TotalScans   prometheus.Counter
}

// NewMetricsRegistry creates a metrics registry with all SpreadRun metrics
func NewMetricsRegistry() *MetricsRegistry {
	registry := &MetricsRegistry{
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spreadrun_evaluations_total",
				Help: "Total candidate evaluations by strategy",
			},
			[]string{"strategy"},
		),

		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spreadrun_rejections_total",
				Help: "Total candidate rejections by strategy and reason category",
			},
			[]string{"strategy", "category"},
		),

		MidSources: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spreadrun_mid_sources_total",
				Help: "Resolved leg mids by provenance source",
			},
			[]string{"source"},
		),

		Verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spreadrun_verdicts_total",
				Help: "Evaluation verdicts by strategy and status",
			},
			[]string{"strategy", "status"},
		),

		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spreadrun_scan_duration_seconds",
				Help:    "Duration of full chain scans in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
		),

		ActiveScans: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "spreadrun_active_scans",
				Help: "Number of currently active scans",
			},
		),

		TotalScans: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spreadrun_scans_total",
				Help: "Total number of scans initiated",
			},
		),
	}

	// Register all metrics with Prometheus
	prometheus.MustRegister(
		registry.Evaluations,
		registry.Rejections,
		registry.MidSources,
		registry.Verdicts,
		registry.ScanDuration,
		registry.ActiveScans,
		registry.TotalScans,
	)

	return registry
}

// RecordEvaluation counts one candidate evaluation
func (m *MetricsRegistry) RecordEvaluation(strategy string) {
	m.Evaluations.WithLabelValues(strategy).Inc()
}

// RecordRejection counts one rejection under its canonical category
func (m *MetricsRegistry) RecordRejection(strategy, category string) {
	m.Rejections.WithLabelValues(strategy, category).Inc()
}

// RecordMidSource counts one resolved leg by provenance
func (m *MetricsRegistry) RecordMidSource(source string) {
	m.MidSources.WithLabelValues(source).Inc()
}

// RecordVerdict counts one verdict outcome
func (m *MetricsRegistry) RecordVerdict(strategy, status string) {
	m.Verdicts.WithLabelValues(strategy, status).Inc()
}

// ScanTimer tracks execution time for one scan
type ScanTimer struct {
	metrics *MetricsRegistry
	start   time.Time
}

// StartScanTimer begins timing a scan and marks it active
func (m *MetricsRegistry) StartScanTimer() *ScanTimer {
	m.ActiveScans.Inc()
	m.TotalScans.Inc()
	return &ScanTimer{metrics: m, start: time.Now()}
}

// Stop completes the scan timing and records the metric
func (st *ScanTimer) Stop() {
	duration := time.Since(st.start)
	st.metrics.ActiveScans.Dec()
	st.metrics.ScanDuration.Observe(duration.Seconds())

	log.Debug().
		Dur("duration", duration).
		Msg("Scan completed")
}

// RejectionCount reads back the current rejection counter for a
// strategy/category pair, used by scan reports to summarize a run.
func (m *MetricsRegistry) RejectionCount(strategy, category string) float64 {
	metric := &io_prometheus_client.Metric{}
	counter, err := m.Rejections.GetMetricWithLabelValues(strategy, category)
	if err != nil {
		return 0
	}
	if err := counter.Write(metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func (m *MetricsRegistry) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Global metrics registry instance
var DefaultMetrics *MetricsRegistry

// InitializeMetrics initializes the global metrics registry
func InitializeMetrics() {
	DefaultMetrics = NewMetricsRegistry()
	log.Info().Msg("Prometheus metrics registry initialized")
}
