package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for complyeasy. A Metrics built with
// metrics disabled accepts every call and records nothing.
type Metrics struct {
	config MetricsConfig

	// Facade metrics
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	errorsByKind *prometheus.CounterVec

	// Audit metrics
	auditRecorded prometheus.Counter
	auditFailures *prometheus.CounterVec

	// Store metrics
	corruptCollections *prometheus.CounterVec
	collectionSize     *prometheus.GaugeVec

	// AI metrics
	aiCalls    *prometheus.CounterVec
	aiDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with its own registry.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "facade_calls_total",
				Help:      "Total number of facade calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "facade_call_duration_seconds",
				Help:      "Duration of facade calls in seconds, simulated latency included",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"operation"},
		),
		errorsByKind: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of facade errors by kind",
			},
			[]string{"kind"},
		),

		auditRecorded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_entries_recorded_total",
				Help:      "Total number of audit entries appended",
			},
		),
		auditFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_failures_total",
				Help:      "Total number of mutations whose audit entry could not be recorded",
			},
			[]string{"operation"},
		),

		corruptCollections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_corrupt_collections_total",
				Help:      "Total number of collection reads that found undecodable data",
			},
			[]string{"collection"},
		),
		collectionSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_collection_records",
				Help:      "Number of records in a collection at its last write",
			},
			[]string{"collection"},
		),

		aiCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_calls_total",
				Help:      "Total number of AI oracle calls by feature and outcome",
			},
			[]string{"feature", "outcome"},
		),
		aiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ai_call_duration_seconds",
				Help:      "Duration of AI oracle calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"feature"},
		),
	}

	registry.MustRegister(
		m.calls,
		m.callDuration,
		m.errorsByKind,
		m.auditRecorded,
		m.auditFailures,
		m.corruptCollections,
		m.collectionSize,
		m.aiCalls,
		m.aiDuration,
	)

	return m, nil
}

// RecordCall records a completed facade call.
func (m *Metrics) RecordCall(operation, outcome string, duration time.Duration) {
	if m == nil || m.calls == nil {
		return
	}
	m.calls.WithLabelValues(operation, outcome).Inc()
	m.callDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordError records a facade error by kind.
func (m *Metrics) RecordError(kind string) {
	if m == nil || m.errorsByKind == nil {
		return
	}
	m.errorsByKind.WithLabelValues(kind).Inc()
}

// RecordAuditEntry counts an appended audit entry.
func (m *Metrics) RecordAuditEntry() {
	if m == nil || m.auditRecorded == nil {
		return
	}
	m.auditRecorded.Inc()
}

// RecordAuditFailure counts a mutation whose audit entry was lost.
func (m *Metrics) RecordAuditFailure(operation string) {
	if m == nil || m.auditFailures == nil {
		return
	}
	m.auditFailures.WithLabelValues(operation).Inc()
}

// RecordCorruptCollection counts a read that degraded to an empty collection.
func (m *Metrics) RecordCorruptCollection(collection string) {
	if m == nil || m.corruptCollections == nil {
		return
	}
	m.corruptCollections.WithLabelValues(collection).Inc()
}

// SetCollectionSize records the number of rows written to a collection.
func (m *Metrics) SetCollectionSize(collection string, n int) {
	if m == nil || m.collectionSize == nil {
		return
	}
	m.collectionSize.WithLabelValues(collection).Set(float64(n))
}

// RecordAICall records an AI oracle call.
func (m *Metrics) RecordAICall(feature, outcome string, duration time.Duration) {
	if m == nil || m.aiCalls == nil {
		return
	}
	m.aiCalls.WithLabelValues(feature, outcome).Inc()
	m.aiDuration.WithLabelValues(feature).Observe(duration.Seconds())
}

// Registry returns the registry the metrics are registered with, or nil when
// metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// NewMetricsServer returns an HTTP server exposing the metrics endpoint, or
// nil when metrics are disabled. The caller owns its lifecycle.
func (m *Metrics) NewMetricsServer() *http.Server {
	if m == nil || !m.config.Enabled {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	return &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
