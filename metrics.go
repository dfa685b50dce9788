package langprompt

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the SDK's request
// lifecycle. It is safe for concurrent use; a nil collector is a no-op.
type MetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "langprompt_requests_total",
				Help: "Total number of API requests made",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "langprompt_request_duration_seconds",
				Help:    "Duration of API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "langprompt_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"endpoint", "attempt"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "langprompt_errors_total",
				Help: "Total number of typed errors surfaced",
			},
			[]string{"type", "endpoint"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "langprompt_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"resource"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "langprompt_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"resource"},
		),
	}
}

// RecordRequest records one completed request with its status and duration.
func (mc *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	mc.requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRetry records a scheduled retry attempt.
func (mc *MetricsCollector) RecordRetry(endpoint string, attempt int) {
	if mc == nil {
		return
	}
	mc.retriesTotal.WithLabelValues(endpoint, strconv.Itoa(attempt)).Inc()
}

// RecordError records a typed error surfaced to the caller.
func (mc *MetricsCollector) RecordError(errorType ErrorType, endpoint string) {
	if mc == nil {
		return
	}
	mc.errorsTotal.WithLabelValues(string(errorType), endpoint).Inc()
}

// RecordCacheHit records a cache hit for a resource kind.
func (mc *MetricsCollector) RecordCacheHit(resource string) {
	if mc == nil {
		return
	}
	mc.cacheHits.WithLabelValues(resource).Inc()
}

// RecordCacheMiss records a cache miss for a resource kind.
func (mc *MetricsCollector) RecordCacheMiss(resource string) {
	if mc == nil {
		return
	}
	mc.cacheMisses.WithLabelValues(resource).Inc()
}
