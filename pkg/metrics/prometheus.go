package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the athlete profile service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Table loading - the only external dependency of the service
	tableLoads        *prometheus.CounterVec
	tableLoadDuration prometheus.Histogram
	tableLastLoadUnix prometheus.Gauge
	tableRows         prometheus.Gauge
	tableAthletes     prometheus.Gauge
	tableSessions     prometheus.Gauge

	// Source transport
	sourceFetches *prometheus.CounterVec
	sourceCache   *prometheus.CounterVec

	// Aggregation
	profileRequests     *prometheus.CounterVec
	profileLatency      prometheus.Histogram
	missingMetrics      *prometheus.CounterVec
	placeholderMetrics  *prometheus.CounterVec
	leaderboardSize     prometheus.Gauge
	leaderboardRebuild  prometheus.Histogram
	compositeComputeErr prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
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
		namespace:        "athlete",
		subsystem:        "profile",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.tableLoads = auto.NewCounterVec(
		m.counterOpts("table_loads_total", "Total number of metric table loads by source kind and outcome"),
		[]string{"source", "outcome"},
	)
	m.tableLoadDuration = auto.NewHistogram(
		m.histogramOpts("table_load_duration_milliseconds", "Metric table load duration in milliseconds", m.histogramBuckets),
	)
	m.tableLastLoadUnix = auto.NewGauge(
		m.gaugeOpts("table_last_load_unix", "Unix timestamp of the last successful table load"),
	)
	m.tableRows = auto.NewGauge(m.gaugeOpts("table_rows", "Rows in the published metric table"))
	m.tableAthletes = auto.NewGauge(m.gaugeOpts("table_athletes", "Distinct athletes in the published metric table"))
	m.tableSessions = auto.NewGauge(m.gaugeOpts("table_sessions", "Distinct session dates in the published metric table"))

	m.sourceFetches = auto.NewCounterVec(
		m.counterOpts("source_fetches_total", "Remote source fetch attempts by outcome"),
		[]string{"outcome"},
	)
	m.sourceCache = auto.NewCounterVec(
		m.counterOpts("source_cache_total", "Remote source cache lookups by result"),
		[]string{"result"},
	)

	m.profileRequests = auto.NewCounterVec(
		m.counterOpts("profile_requests_total", "Profile assemblies by outcome"),
		[]string{"outcome"},
	)
	m.profileLatency = auto.NewHistogram(
		m.histogramOpts("profile_latency_milliseconds", "Profile assembly latency in milliseconds", m.histogramBuckets),
	)
	m.missingMetrics = auto.NewCounterVec(
		m.counterOpts("missing_metrics_total", "Metrics absent from the table when a selection was aggregated"),
		[]string{"selection"},
	)
	m.placeholderMetrics = auto.NewCounterVec(
		m.counterOpts("placeholder_metrics_total", "Selection entries rendered with a placeholder value"),
		[]string{"selection"},
	)
	m.leaderboardSize = auto.NewGauge(m.gaugeOpts("leaderboard_size", "Athletes ranked on the composite leaderboard"))
	m.leaderboardRebuild = auto.NewHistogram(
		m.histogramOpts("leaderboard_rebuild_duration_milliseconds", "Leaderboard rebuild duration in milliseconds", m.histogramBuckets),
	)
	m.compositeComputeErr = auto.NewCounter(
		m.counterOpts("composite_errors_total", "Composite score computations that failed"),
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
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordTableLoad counts a table load. Unknown outcomes are dropped.
func RecordTableLoad(source, outcome string) {
	if ValidOutcome(outcome) != nil {
		return
	}
	globalManager.tableLoads.WithLabelValues(source, outcome).Inc()
}

// RecordTableLoadDuration records how long a table load took.
func RecordTableLoadDuration(latencyMs float64) {
	globalManager.tableLoadDuration.Observe(latencyMs)
}

// UpdateTableShape publishes the size of the freshly loaded table.
func UpdateTableShape(rows, athletes, sessions int, loadedUnix int64) {
	globalManager.tableRows.Set(float64(rows))
	globalManager.tableAthletes.Set(float64(athletes))
	globalManager.tableSessions.Set(float64(sessions))
	globalManager.tableLastLoadUnix.Set(float64(loadedUnix))
}

// RecordSourceFetch counts a remote fetch attempt.
func RecordSourceFetch(outcome string) {
	if ValidOutcome(outcome) != nil {
		return
	}
	globalManager.sourceFetches.WithLabelValues(outcome).Inc()
}

// RecordSourceCache counts a cache hit or miss.
func RecordSourceCache(hit bool) {
	result := OutcomeMiss
	if hit {
		result = OutcomeHit
	}
	globalManager.sourceCache.WithLabelValues(result).Inc()
}

// RecordProfileRequest counts a profile assembly.
func RecordProfileRequest(outcome string, latencyMs float64) {
	if ValidOutcome(outcome) != nil {
		return
	}
	globalManager.profileRequests.WithLabelValues(outcome).Inc()
	globalManager.profileLatency.Observe(latencyMs)
}

// RecordMissingMetrics adds n missing metrics for a selection.
func RecordMissingMetrics(selection string, n int) {
	if n <= 0 {
		return
	}
	globalManager.missingMetrics.WithLabelValues(selection).Add(float64(n))
}

// RecordPlaceholderMetrics adds n placeholder entries for a selection.
func RecordPlaceholderMetrics(selection string, n int) {
	if n <= 0 {
		return
	}
	globalManager.placeholderMetrics.WithLabelValues(selection).Add(float64(n))
}

// UpdateLeaderboard publishes leaderboard size and rebuild time.
func UpdateLeaderboard(size int, rebuildMs float64) {
	globalManager.leaderboardSize.Set(float64(size))
	globalManager.leaderboardRebuild.Observe(rebuildMs)
}

// RecordCompositeError increments the composite errors counter.
func RecordCompositeError() {
	globalManager.compositeComputeErr.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
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
