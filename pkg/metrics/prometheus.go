// Package metrics provides Prometheus metrics for the attrition prediction
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager owns every metric registered by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// Prediction pipeline
	predictionsTotal  *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	validationErrors  prometheus.Counter
	modelErrors       prometheus.Counter
	modelLoads        prometheus.Counter

	// Audit persistence
	auditWrites   prometheus.Counter
	auditFailures prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry so the default Go collectors stay out of /metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "attrition",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := func(name, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      name,
			Help:      help,
		}
	}

	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts(factory("http_requests_total", "HTTP requests by endpoint, method and status code.")),
		[]string{"endpoint", "method", "status"},
	)
	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request duration in milliseconds.",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method"},
	)
	m.errorsByEndpoint = prometheus.NewCounterVec(
		prometheus.CounterOpts(factory("http_errors_total", "HTTP error responses by endpoint and class.")),
		[]string{"endpoint", "class"},
	)

	m.predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts(factory("predictions_total", "Predictions served, by label.")),
		[]string{"label"},
	)
	m.predictionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_latency_ms",
		Help:      "End-to-end prediction latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.validationErrors = prometheus.NewCounter(
		prometheus.CounterOpts(factory("validation_errors_total", "Requests rejected by schema validation.")))
	m.modelErrors = prometheus.NewCounter(
		prometheus.CounterOpts(factory("model_errors_total", "Prediction failures from the model engine.")))
	m.modelLoads = prometheus.NewCounter(
		prometheus.CounterOpts(factory("model_loads_total", "Model artifact loads.")))

	m.auditWrites = prometheus.NewCounter(
		prometheus.CounterOpts(factory("audit_writes_total", "Audit log rows written.")))
	m.auditFailures = prometheus.NewCounter(
		prometheus.CounterOpts(factory("audit_failures_total", "Audit log writes that failed and were discarded.")))

	if !m.enabled {
		return
	}
	m.registry.MustRegister(
		m.httpRequests,
		m.httpRequestDuration,
		m.errorsByEndpoint,
		m.predictionsTotal,
		m.predictionLatency,
		m.validationErrors,
		m.modelErrors,
		m.modelLoads,
		m.auditWrites,
		m.auditFailures,
	)
}

// GetRegistry returns the gatherer backing /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration observes one request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(ms)
}

// RecordErrorByEndpoint counts an error response.
func RecordErrorByEndpoint(endpoint, class string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, class).Inc()
}

// RecordPrediction counts one served prediction by label (OUI/NON).
func RecordPrediction(label string) {
	globalManager.predictionsTotal.WithLabelValues(label).Inc()
}

// RecordPredictionLatency observes one end-to-end prediction latency.
func RecordPredictionLatency(ms float64) {
	globalManager.predictionLatency.Observe(ms)
}

// RecordValidationError counts one rejected request.
func RecordValidationError() {
	globalManager.validationErrors.Inc()
}

// RecordModelError counts one engine failure.
func RecordModelError() {
	globalManager.modelErrors.Inc()
}

// RecordModelLoad counts one artifact load.
func RecordModelLoad() {
	globalManager.modelLoads.Inc()
}

// RecordAuditWrite counts one persisted audit row.
func RecordAuditWrite() {
	globalManager.auditWrites.Inc()
}

// RecordAuditFailure counts one discarded audit write.
func RecordAuditFailure() {
	globalManager.auditFailures.Inc()
}
