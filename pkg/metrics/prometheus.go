// Package metrics provides Prometheus metrics for the ranked-score
// engine and its HTTP boundary.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector registered by this package.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Concurrent ranking cell.
	cellAddLatency  prometheus.Histogram
	cellFindLatency prometheus.Histogram
	cellTopLatency  prometheus.Histogram
	cellSwaps       prometheus.Counter
	population      prometheus.Gauge

	// Persistent weighted ordered map.
	pomRotations prometheus.Counter

	// HTTP boundary.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Process-level.
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

//nolint:gochecknoglobals // intentional global for singleton metrics manager
var globalManager *Manager

//nolint:gochecknoglobals // intentional global for metrics registry
var customRegistry = prometheus.NewRegistry()

//nolint:gochecknoinits // intentional init for global metrics setup
func init() {
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager builds a Manager and registers all of its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "highscore",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.cellAddLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cell_add_latency_milliseconds",
		Help:      "Latency of the concurrent ranking cell's Add operation.",
		Buckets:   m.histogramBuckets,
	})
	m.cellFindLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cell_find_latency_milliseconds",
		Help:      "Latency of the concurrent ranking cell's Find operation.",
		Buckets:   m.histogramBuckets,
	})
	m.cellTopLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cell_top_latency_milliseconds",
		Help:      "Latency of the concurrent ranking cell's Top operation.",
		Buckets:   m.histogramBuckets,
	})
	m.cellSwaps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cell_state_swaps_total",
		Help:      "Total number of times the cell's ranking state reference was replaced.",
	})
	m.population = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "population",
		Help:      "Number of distinct users currently tracked by the ranking state.",
	})

	m.pomRotations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pom_rotations_total",
		Help:      "Total number of AVL rotations performed across all persistent weighted ordered maps.",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Bytes of allocated heap objects in the process.",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Current number of goroutines.",
	})
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// RecordCellAddLatency records the latency of one Cell.Add call.
func RecordCellAddLatency(d time.Duration) { globalManager.cellAddLatency.Observe(millis(d)) }

// RecordCellFindLatency records the latency of one Cell.Find call.
func RecordCellFindLatency(d time.Duration) { globalManager.cellFindLatency.Observe(millis(d)) }

// RecordCellTopLatency records the latency of one Cell.Top call.
func RecordCellTopLatency(d time.Duration) { globalManager.cellTopLatency.Observe(millis(d)) }

// RecordCellSwap increments the state-swap counter.
func RecordCellSwap() { globalManager.cellSwaps.Inc() }

// UpdatePopulation sets the current tracked-user gauge.
func UpdatePopulation(n uint64) { globalManager.population.Set(float64(n)) }

// RecordPOMRotation increments the AVL rotation counter.
func RecordPOMRotation() { globalManager.pomRotations.Inc() }

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request's duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration time.Duration) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(millis(duration))
}

// UpdateSystemMemoryUsage sets the memory-usage gauge; cmd/main.go
// feeds it runtime.MemStats.Alloc (allocated heap bytes).
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine-count gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the registry metrics are served from.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
