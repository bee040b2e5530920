// Package metrics provides Prometheus metrics for the light-curve archive service.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Catalog
	lookups        *prometheus.CounterVec
	catalogObjects *prometheus.GaugeVec
	catalogReloads *prometheus.CounterVec

	// Retrieval
	retrievals       *prometheus.CounterVec
	retrievalLatency prometheus.Histogram
	archiveLatency   *prometheus.HistogramVec
	cacheRequests    *prometheus.CounterVec

	// Outlier filter
	clipMasked    *prometheus.CounterVec
	clipThreshold *prometheus.HistogramVec
	clipSteps     prometheus.Histogram
	clipRatio     prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "lcarchive",
		subsystem:        "archive",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.lookups = auto.NewCounterVec(
		m.counterOpts("catalog_lookups_total", "Catalog lookups by result (hit or miss)"),
		[]string{"result"},
	)
	m.catalogObjects = auto.NewGaugeVec(
		m.gaugeOpts("catalog_objects", "Objects indexed per catalog source"),
		[]string{"source"},
	)
	m.catalogReloads = auto.NewCounterVec(
		m.counterOpts("catalog_reloads_total", "Catalog reloads by result"),
		[]string{"result"},
	)

	m.retrievals = auto.NewCounterVec(
		m.counterOpts("retrievals_total", "Light-curve retrievals by source and clipping"),
		[]string{"source", "clipped"},
	)
	m.retrievalLatency = auto.NewHistogram(
		m.histogramOpts("retrieval_latency_milliseconds", "End-to-end light-curve retrieval latency", m.histogramBuckets),
	)
	m.archiveLatency = auto.NewHistogramVec(
		m.histogramOpts("archive_read_latency_milliseconds", "Raw light-curve read latency by archive backend", m.histogramBuckets),
		[]string{"backend"},
	)
	m.cacheRequests = auto.NewCounterVec(
		m.counterOpts("cache_requests_total", "Curve cache requests by result"),
		[]string{"result"},
	)

	m.clipMasked = auto.NewCounterVec(
		m.counterOpts("clip_masked_points_total", "Epochs rejected by the outlier filter per band"),
		[]string{"band"},
	)
	m.clipThreshold = auto.NewHistogramVec(
		m.histogramOpts("clip_threshold_magnitudes", "Final outlier threshold per band",
			[]float64{0.25, 0.35, 0.5, 0.75, 1, 1.5, 2, 3, 5, 10}),
		[]string{"band"},
	)
	m.clipSteps = auto.NewHistogram(
		m.histogramOpts("clip_search_steps", "Threshold increments before the rejection ratio fell below the bound",
			[]float64{0, 1, 2, 5, 10, 20, 50, 100}),
	)
	m.clipRatio = auto.NewHistogram(
		m.histogramOpts("clip_rejection_ratio", "Fraction of considered epochs rejected",
			[]float64{0, 0.01, 0.02, 0.05, 0.075, 0.1}),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

func hitLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordLookup counts a catalog lookup.
func RecordLookup(found bool) {
	globalManager.lookups.WithLabelValues(hitLabel(found)).Inc()
}

// UpdateCatalogSize sets the number of objects indexed for source.
func UpdateCatalogSize(source string, count int) {
	globalManager.catalogObjects.WithLabelValues(source).Set(float64(count))
}

// RecordReload counts a catalog reload.
func RecordReload(err error) {
	globalManager.catalogReloads.WithLabelValues(resultLabel(err)).Inc()
}

// RecordRetrieval counts a completed retrieval and its latency.
func RecordRetrieval(source string, clipped bool, latencyMs float64) {
	globalManager.retrievals.WithLabelValues(source, strconv.FormatBool(clipped)).Inc()
	globalManager.retrievalLatency.Observe(latencyMs)
}

// RecordArchiveRead records the latency of one raw light-curve read.
func RecordArchiveRead(backend string, latencyMs float64) {
	globalManager.archiveLatency.WithLabelValues(backend).Observe(latencyMs)
}

// RecordCache counts a curve cache request.
func RecordCache(hit bool) {
	globalManager.cacheRequests.WithLabelValues(hitLabel(hit)).Inc()
}

// RecordClip records one band's outlier-filter outcome.
func RecordClip(band string, masked, steps int, threshold, ratio float64) {
	globalManager.clipMasked.WithLabelValues(band).Add(float64(masked))
	globalManager.clipThreshold.WithLabelValues(band).Observe(threshold)
	globalManager.clipSteps.Observe(float64(steps))
	globalManager.clipRatio.Observe(ratio)
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent increments the error counter for a specific component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType increments the error counter for a specific error type.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint increments the error counter for a specific endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Value returns the current value of a counter or gauge family summed over
// every label set. It backs the /stats endpoint.
func Value(name string) (float64, error) {
	families, err := customRegistry.Gather()
	if err != nil {
		return 0, err
	}
	full := prometheus.BuildFQName(globalManager.namespace, globalManager.subsystem, name)
	for _, f := range families {
		if f.GetName() != full {
			continue
		}
		total := 0.0
		for _, mt := range f.GetMetric() {
			switch {
			case mt.GetCounter() != nil:
				total += mt.GetCounter().GetValue()
			case mt.GetGauge() != nil:
				total += mt.GetGauge().GetValue()
			}
		}
		return total, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, full)
}
