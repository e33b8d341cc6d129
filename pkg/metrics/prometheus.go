// Package metrics provides Prometheus metrics for the teamdraw service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Draws
	drawsTotal       prometheus.Counter
	validationErrors *prometheus.CounterVec
	drawAttempts     prometheus.Histogram
	drawsExhausted   prometheus.Counter
	duplicatesSeen   prometheus.Counter
	teamSize         prometheus.Histogram

	// Sessions
	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter
	sessionsRemoved *prometheus.CounterVec

	// Notifications
	notificationsEnqueued prometheus.Counter
	notificationsDropped  *prometheus.CounterVec
	notificationsSent     prometheus.Counter
	notificationsFailed   prometheus.Counter
	notificationLatency   prometheus.Histogram

	// Queue and workers
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	workerCount      prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "teamdraw",
		subsystem:        "service",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.drawsTotal = m.counter("draws_total", "Total number of accepted team draws")
	m.validationErrors = m.counterVec("validation_errors_total", "Sort requests rejected before drawing", "reason")
	m.drawAttempts = m.histogram("draw_attempts", "Candidates generated per accepted draw",
		[]float64{1, 2, 3, 5, 10, 20, 30, 40, 50})
	m.drawsExhausted = m.counter("draws_exhausted_total", "Draws that ran out of attempts without a unique partition")
	m.duplicatesSeen = m.counter("duplicate_candidates_total", "Candidates rejected because they repeat session history")
	m.teamSize = m.histogram("team_size", "Number of members per drawn team",
		[]float64{0, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20})

	m.sessionsActive = m.gauge("sessions_active", "Sessions currently held in memory")
	m.sessionsCreated = m.counter("sessions_created_total", "Sessions created since start")
	m.sessionsRemoved = m.counterVec("sessions_removed_total", "Sessions removed from memory", "reason")

	m.notificationsEnqueued = m.counter("notifications_enqueued_total", "Summaries handed to the notification queue")
	m.notificationsDropped = m.counterVec("notifications_dropped_total", "Summaries the queue refused", "reason")
	m.notificationsSent = m.counter("notifications_sent_total", "Summaries accepted by the email sink")
	m.notificationsFailed = m.counter("notifications_failed_total", "Summaries the email sink rejected or could not receive")
	m.notificationLatency = m.histogram("notification_latency_milliseconds", "Round trip to the email sink in milliseconds",
		[]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000})

	m.queueSize = m.gauge("queue_size", "Notifications waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum notifications the queue holds")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "queue_size / queue_capacity")
	m.workerCount = m.gauge("worker_count", "Notification workers running")

	auto := promauto.With(m.registry)
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "HTTP requests by endpoint, method and status",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often gauges sampled by background loops are refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RefreshInterval returns the global manager's refresh interval.
func RefreshInterval() time.Duration { return globalManager.refreshInterval }

func on() bool { return globalManager.enabled }

// RecordDraw records one accepted draw and the sizes of its teams.
func RecordDraw(attempts int, exhausted bool, teamSizes []int) {
	if !on() {
		return
	}
	globalManager.drawsTotal.Inc()
	globalManager.drawAttempts.Observe(float64(attempts))
	if exhausted {
		globalManager.drawsExhausted.Inc()
	}
	for _, n := range teamSizes {
		globalManager.teamSize.Observe(float64(n))
	}
}

// RecordDuplicateCandidate counts one candidate rejected as a repeat.
func RecordDuplicateCandidate() {
	if on() {
		globalManager.duplicatesSeen.Inc()
	}
}

// RecordValidationError counts a rejected sort request.
func RecordValidationError(reason string) {
	if on() {
		globalManager.validationErrors.WithLabelValues(reason).Inc()
	}
}

// RecordSessionCreated counts a new session.
func RecordSessionCreated() {
	if on() {
		globalManager.sessionsCreated.Inc()
	}
}

// RecordSessionsEvicted counts sessions dropped for being idle.
func RecordSessionsEvicted(n int) {
	if on() {
		globalManager.sessionsRemoved.WithLabelValues("idle").Add(float64(n))
	}
}

// RecordSessionDeleted counts a session released by its client.
func RecordSessionDeleted() {
	if on() {
		globalManager.sessionsRemoved.WithLabelValues("deleted").Inc()
	}
}

// UpdateSessionsActive sets the live session gauge.
func UpdateSessionsActive(n int) {
	if on() {
		globalManager.sessionsActive.Set(float64(n))
	}
}

// RecordNotificationEnqueued counts a summary accepted by the queue.
func RecordNotificationEnqueued() {
	if on() {
		globalManager.notificationsEnqueued.Inc()
	}
}

// RecordNotificationDropped counts a summary the queue refused.
func RecordNotificationDropped(reason string) {
	if on() {
		globalManager.notificationsDropped.WithLabelValues(reason).Inc()
	}
}

// RecordNotificationResult records the sink outcome and its latency.
func RecordNotificationResult(ok bool, latency time.Duration) {
	if !on() {
		return
	}
	if ok {
		globalManager.notificationsSent.Inc()
	} else {
		globalManager.notificationsFailed.Inc()
	}
	globalManager.notificationLatency.Observe(float64(latency.Milliseconds()))
}

// UpdateQueueSize sets the queue length and utilization.
func UpdateQueueSize(size, capacity int) {
	if !on() {
		return
	}
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateWorkerCount sets the worker gauge.
func UpdateWorkerCount(count int) {
	if on() {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordHTTPRequest records a finished HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !on() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records an average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if on() {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
