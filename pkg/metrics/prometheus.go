// Package metrics provides Prometheus metrics for the sprite
// generation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Tool Metrics - the dispatch surface
	toolInvocations *prometheus.CounterVec
	toolLatency     *prometheus.HistogramVec

	// Enhancement Metrics
	promptEnhancements prometheus.Counter

	// Generation Metrics - calls to the AI model
	generationLatency *prometheus.HistogramVec
	generationErrors  *prometheus.CounterVec

	// Store Metrics
	storeQueryLatency prometheus.Histogram
	storeTimeouts     prometheus.Counter

	// Inventory Gauges
	trainingReferences prometheus.Gauge
	spritesStored      prometheus.Gauge
	personasStored     prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "spritegen",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	// Tool Metrics
	m.toolInvocations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "tool_invocations_total",
			Help:      "Total number of tool invocations by tool and outcome",
		},
		[]string{"tool", "status"},
	)

	m.toolLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "tool_latency_milliseconds",
			Help:      "Tool execution latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"tool"},
	)

	// Enhancement Metrics
	m.promptEnhancements = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prompt_enhancements_total",
		Help:      "Total number of prompts enriched with training data",
	})

	// Generation Metrics
	m.generationLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "generation_latency_milliseconds",
			Help:      "AI model call latency in milliseconds by payload kind",
			Buckets:   m.histogramBuckets,
		},
		[]string{"kind"},
	)

	m.generationErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "generation_errors_total",
			Help:      "Total number of failed AI model calls by payload kind",
		},
		[]string{"kind"},
	)

	// Store Metrics
	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Store query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeTimeouts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_timeouts_total",
		Help:      "Total number of store queries aborted by the query timeout",
	})

	// Inventory Gauges
	m.trainingReferences = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "training_references",
		Help:      "Current number of stored training references",
	})

	m.spritesStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sprites_stored",
		Help:      "Current number of stored sprites",
	})

	m.personasStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "personas_stored",
		Help:      "Current number of stored personas",
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// RecordToolInvocation increments the tool invocation counter.
func RecordToolInvocation(tool, status string) {
	globalManager.toolInvocations.WithLabelValues(tool, status).Inc()
}

// ObserveToolLatency records tool execution latency in milliseconds.
func ObserveToolLatency(tool string, latencyMs float64) {
	globalManager.toolLatency.WithLabelValues(tool).Observe(latencyMs)
}

// RecordPromptEnhancement increments the enhancement counter.
func RecordPromptEnhancement() {
	globalManager.promptEnhancements.Inc()
}

// ObserveGenerationLatency records AI model call latency in milliseconds.
func ObserveGenerationLatency(kind string, latencyMs float64) {
	globalManager.generationLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordGenerationError increments the model error counter.
func RecordGenerationError(kind string) {
	globalManager.generationErrors.WithLabelValues(kind).Inc()
}

// ObserveStoreQueryLatency records store query latency in milliseconds.
func ObserveStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordStoreTimeout increments the store timeout counter.
func RecordStoreTimeout() {
	globalManager.storeTimeouts.Inc()
}

// UpdateTrainingReferences sets the stored training reference count.
func UpdateTrainingReferences(count int) {
	globalManager.trainingReferences.Set(float64(count))
}

// UpdateSpritesStored sets the stored sprite count.
func UpdateSpritesStored(count int) {
	globalManager.spritesStored.Set(float64(count))
}

// UpdatePersonasStored sets the stored persona count.
func UpdatePersonasStored(count int) {
	globalManager.personasStored.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
