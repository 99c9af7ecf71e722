package infrastructure

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements BackendMetrics and StorageMetrics on a private
// registry, so several instances can coexist in one process.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	storageOps      *prometheus.CounterVec
	storageDuration *prometheus.HistogramVec
	hookStates      *prometheus.CounterVec

	mu       sync.RWMutex
	total    int64
	failures int64
	byStatus map[int]int64
	storage  map[string]int64
}

func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		registry: registry,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skydash_backend_requests_total",
				Help: "The total number of requests sent to the data backend",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skydash_backend_request_duration_seconds",
				Help:    "Backend request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		storageOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skydash_storage_operations_total",
				Help: "The total number of persistent storage operations",
			},
			[]string{"backend", "operation", "result"},
		),
		storageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skydash_storage_operation_duration_seconds",
				Help:    "Persistent storage operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),
		hookStates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skydash_hook_transitions_total",
				Help: "The total number of fetch hook state transitions",
			},
			[]string{"hook", "state"},
		),
		byStatus: make(map[int]int64),
		storage:  make(map[string]int64),
	}
}

// RecordRequest records one backend call. Status 0 means the request never
// got a response.
func (m *PrometheusMetrics) RecordRequest(method, path string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, path, label).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	m.byStatus[status]++
	if status == 0 || status >= 400 {
		m.failures++
	}
}

func (m *PrometheusMetrics) RecordOperation(backend, operation string, success bool, duration time.Duration) {
	result := "ok"
	if !success {
		result = "error"
	}
	m.storageOps.WithLabelValues(backend, operation, result).Inc()
	m.storageDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.storage[operation]++
}

// RecordHookTransition counts a fetch hook entering state
func (m *PrometheusMetrics) RecordHookTransition(hook, state string) {
	m.hookStates.WithLabelValues(hook, state).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// GetStats returns an aggregated JSON friendly view of the counters
func (m *PrometheusMetrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make(map[string]int64, len(m.byStatus))
	for status, count := range m.byStatus {
		key := "error"
		if status > 0 {
			key = strconv.Itoa(status)
		}
		statuses[key] = count
	}
	storage := make(map[string]int64, len(m.storage))
	for op, count := range m.storage {
		storage[op] = count
	}

	var failureRatio float64
	if m.total > 0 {
		failureRatio = float64(m.failures) / float64(m.total)
	}

	return map[string]interface{}{
		"backend": map[string]interface{}{
			"requests":      m.total,
			"failures":      m.failures,
			"failure_ratio": failureRatio,
			"by_status":     statuses,
		},
		"storage": storage,
	}
}
