// Package metrics provides Prometheus metrics for the pitch dashboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Upstream fetches
	fetches       *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	fetchRetries  prometheus.Counter
	recordsParsed prometheus.Counter

	// Cache
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	cacheEntries prometheus.Gauge

	// Zone matrix
	matricesComputed prometheus.Counter
	pitchesInZone    prometheus.Counter
	invalidRecords   prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Prefetch queue and workers
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueEnqueued   prometheus.Counter
	queueRejected   *prometheus.CounterVec
	workerCount     prometheus.Gauge
	jobsProcessed   *prometheus.CounterVec
	jobLatency      prometheus.Histogram
	jobsDuplicate   prometheus.Counter
	errorsComponent *prometheus.CounterVec

	// Process
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPause        prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record* helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pitchdash",
		subsystem:        "dashboard",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.fetches = m.counterVec("upstream_fetches_total", "Upstream requests by source and outcome", "source", "outcome")
	m.fetchLatency = m.histogramVec("upstream_fetch_latency_milliseconds", "Upstream request latency in milliseconds", "source")
	m.fetchRetries = m.counter("upstream_retries_total", "Upstream request retries")
	m.recordsParsed = m.counter("records_parsed_total", "Pitch records decoded from upstream CSV")

	m.cacheHits = m.counterVec("cache_hits_total", "Cache hits by kind", "kind")
	m.cacheMisses = m.counterVec("cache_misses_total", "Cache misses by kind", "kind")
	m.cacheEntries = m.gauge("cache_entries", "Datasets held in the cache")

	m.matricesComputed = m.counter("zone_matrices_computed_total", "Strike-zone count matrices computed")
	m.pitchesInZone = m.counter("zone_pitches_counted_total", "Pitches counted into a zone cell")
	m.invalidRecords = m.counter("zone_invalid_records_total", "Matrix computations rejected for an unreadable zone")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.queueSize = m.gauge("prefetch_queue_size", "Prefetch jobs waiting")
	m.queueCapacity = m.gauge("prefetch_queue_capacity", "Prefetch queue capacity")
	m.queueEnqueued = m.counter("prefetch_enqueued_total", "Prefetch jobs accepted")
	m.queueRejected = m.counterVec("prefetch_rejected_total", "Prefetch jobs rejected by reason", "reason")
	m.workerCount = m.gauge("prefetch_workers", "Prefetch workers running")
	m.jobsProcessed = m.counterVec("prefetch_jobs_total", "Prefetch jobs finished by outcome", "outcome")
	m.jobLatency = m.histogram("prefetch_job_latency_milliseconds", "Prefetch job latency in milliseconds")
	m.jobsDuplicate = m.counter("prefetch_duplicates_total", "Prefetch requests for jobs already pending")
	m.errorsComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.memoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.goroutineCount = m.gauge("system_goroutines", "Goroutines running")
	m.gcPause = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

// RecordFetch counts an upstream request and its latency.
func RecordFetch(source, outcome string, latencyMs float64) {
	globalManager.fetches.WithLabelValues(source, outcome).Inc()
	globalManager.fetchLatency.WithLabelValues(source).Observe(latencyMs)
}

// RecordFetchRetry counts one retried upstream request.
func RecordFetchRetry() { globalManager.fetchRetries.Inc() }

// RecordRecordsParsed counts decoded pitch records.
func RecordRecordsParsed(n int) { globalManager.recordsParsed.Add(float64(n)) }

// RecordCacheHit counts a cache hit for kind ("dataset", "player").
func RecordCacheHit(kind string) { globalManager.cacheHits.WithLabelValues(kind).Inc() }

// RecordCacheMiss counts a cache miss for kind.
func RecordCacheMiss(kind string) { globalManager.cacheMisses.WithLabelValues(kind).Inc() }

// UpdateCacheEntries sets the cached dataset count.
func UpdateCacheEntries(n int) { globalManager.cacheEntries.Set(float64(n)) }

// RecordMatrixComputed counts a computed matrix and the pitches it holds.
func RecordMatrixComputed(pitches int) {
	globalManager.matricesComputed.Inc()
	globalManager.pitchesInZone.Add(float64(pitches))
}

// RecordInvalidRecord counts a matrix computation rejected for bad input.
func RecordInvalidRecord() { globalManager.invalidRecords.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateQueueSize sets the number of waiting prefetch jobs.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the prefetch queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an accepted prefetch job.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueRejected counts a rejected prefetch job.
func RecordQueueRejected(reason string) { globalManager.queueRejected.WithLabelValues(reason).Inc() }

// UpdateWorkerCount sets the number of running prefetch workers.
func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

// RecordJob counts a finished prefetch job and its latency.
func RecordJob(outcome string, latencyMs float64) {
	globalManager.jobsProcessed.WithLabelValues(outcome).Inc()
	globalManager.jobLatency.Observe(latencyMs)
}

// RecordJobDuplicate counts a prefetch request for an already pending job.
func RecordJobDuplicate() { globalManager.jobsDuplicate.Inc() }

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// UpdateSystemMemoryUsage sets the allocated heap in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.memoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.goroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.gcPause.Observe(pauseMs) }
