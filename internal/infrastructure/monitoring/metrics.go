package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Registry metrics
	BundlesInstalled prometheus.Gauge
	StateTransitions *prometheus.CounterVec
	Queries          *prometheus.CounterVec

	// Storage metrics
	StoreOps      *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec

	// Installer metrics
	Installs        *prometheus.CounterVec
	InstallDuration *prometheus.HistogramVec

	// Notification metrics
	Notifications   *prometheus.CounterVec
	Broadcasts      *prometheus.CounterVec
	StatusListeners prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests       int64
	TotalErrors         int64
	Bundles             int64
	RejectedTransitions int64
	ActiveConnections   int64
	TotalDuration       float64 // sum of all request durations
	RequestCount        int64   // count for averaging
}

// NewMetrics creates a metrics collector on the default registerer
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a metrics collector on reg. Tests pass a
// fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bms_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bms_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bms_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bms_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Registry metrics
		BundlesInstalled: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bms_bundles_installed",
				Help: "Number of bundle names in the registry",
			},
		),
		StateTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bms_state_transitions_total",
				Help: "Install state transitions by target state and result",
			},
			[]string{"target", "result"},
		),
		Queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bms_queries_total",
				Help: "Component queries by kind and result",
			},
			[]string{"kind", "result"},
		),

		// Storage metrics
		StoreOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bms_store_operations_total",
				Help: "Persistent store operations",
			},
			[]string{"table", "op", "status"},
		),
		StoreDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bms_store_duration_seconds",
				Help:    "Persistent store operation duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"table", "op"},
		),

		// Installer metrics
		Installs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bms_installer_operations_total",
				Help: "Installer operations by kind and result code",
			},
			[]string{"operation", "code"},
		),
		InstallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bms_installer_duration_seconds",
				Help:    "Installer operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),

		// Notification metrics
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bms_notifications_total",
				Help: "Bundle status notifications by type and result",
			},
			[]string{"type", "result"},
		),
		Broadcasts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bms_broadcasts_total",
				Help: "System broadcast events by event name and status",
			},
			[]string{"event", "status"},
		),
		StatusListeners: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bms_status_listeners",
				Help: "Registered bundle status callbacks",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bms_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bms_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bms_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	return m
}

// RunUptime updates the uptime gauge every second until stop closes
func (m *Metrics) RunUptime(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		case <-stop:
			return
		}
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordTransition records an install state transition attempt
func (m *Metrics) RecordTransition(target string, accepted bool) {
	result := "accepted"
	if !accepted {
		result = "rejected"
		m.mu.Lock()
		m.snapshot.RejectedTransitions++
		m.mu.Unlock()
	}
	m.StateTransitions.WithLabelValues(target, result).Inc()
}

// RecordQuery records a component query
func (m *Metrics) RecordQuery(kind string, found bool) {
	result := "found"
	if !found {
		result = "miss"
	}
	m.Queries.WithLabelValues(kind, result).Inc()
}

// SetBundles sets the number of bundle names in the registry
func (m *Metrics) SetBundles(count int) {
	m.BundlesInstalled.Set(float64(count))
	m.mu.Lock()
	m.snapshot.Bundles = int64(count)
	m.mu.Unlock()
}

// ObserveStoreOp records a persistent store operation
func (m *Metrics) ObserveStoreOp(table, op string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StoreOps.WithLabelValues(table, op, status).Inc()
	m.StoreDuration.WithLabelValues(table, op).Observe(elapsed.Seconds())
}

// RecordInstall records an installer operation and its result code
func (m *Metrics) RecordInstall(operation, code string, duration time.Duration) {
	m.Installs.WithLabelValues(operation, code).Inc()
	m.InstallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordNotification records a bundle status fan-out
func (m *Metrics) RecordNotification(notifyType string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.Notifications.WithLabelValues(notifyType, result).Inc()
}

// RecordBroadcast records a system broadcast publish
func (m *Metrics) RecordBroadcast(event string, err error) {
	status := "delivered"
	if err != nil {
		status = "failed"
	}
	m.Broadcasts.WithLabelValues(event, status).Inc()
}

// SetStatusListeners sets the number of registered status callbacks
func (m *Metrics) SetStatusListeners(count int) {
	m.StatusListeners.Set(float64(count))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns current values for the JSON stats endpoint
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// AverageLatency returns the mean HTTP request duration
func (s MetricsSnapshot) AverageLatency() time.Duration {
	if s.RequestCount == 0 {
		return 0
	}
	return time.Duration(s.TotalDuration / float64(s.RequestCount) * float64(time.Second))
}
