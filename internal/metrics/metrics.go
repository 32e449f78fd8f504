// Package metrics exposes Prometheus instrumentation for the query pipeline
// and the HTTP surface. Go runtime and process metrics are registered by
// promhttp.Handler() automatically.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "praxis_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "praxis_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "praxis_queries_total",
			Help: "Total number of orchestrated queries by task and outcome",
		},
		[]string{"task", "outcome"}, // outcome: success, cache_hit, repaired, fallback, error
	)

	modelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "praxis_model_calls_total",
			Help: "Total number of backend model calls",
		},
		[]string{"model", "status"},
	)

	modelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "praxis_model_call_duration_seconds",
			Help:    "Backend model call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"model"},
	)

	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "praxis_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"task"},
	)

	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "praxis_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"task"},
	)

	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "praxis_cache_entries",
			Help: "Current number of entries in the response cache",
		},
	)

	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "praxis_fallbacks_total",
			Help: "Total number of queries escalated to the fallback model",
		},
		[]string{"task", "reason"},
	)

	repairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "praxis_json_repairs_total",
			Help: "Total number of model-assisted JSON repair attempts",
		},
		[]string{"status"}, // status: success, truncated, failed
	)

	breakerOpensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "praxis_breaker_opens_total",
			Help: "Total number of times a model circuit breaker opened",
		},
		[]string{"model"},
	)

	modelAvailability = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "praxis_model_availability",
			Help: "Model availability status (1 = installed, 0 = missing)",
		},
		[]string{"model"},
	)
)

// Middleware collects request counts and latencies per chi route pattern.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			pattern := routePattern(r)
			status := strconv.Itoa(wrapped.status)

			httpRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, pattern, status).Observe(duration)

			if duration > 10 {
				logger.Warn("Slow request detected",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Float64("duration", duration),
					zap.Int("status", wrapped.status))
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// RecordQuery records the final outcome of one orchestrated query.
func RecordQuery(task, outcome string) {
	queriesTotal.WithLabelValues(task, outcome).Inc()
}

// RecordModelCall records one backend generate call.
func RecordModelCall(model, status string, duration time.Duration) {
	modelCallsTotal.WithLabelValues(model, status).Inc()
	if status == "success" {
		modelCallDuration.WithLabelValues(model).Observe(duration.Seconds())
	}
}

// RecordCacheHit records a response cache hit.
func RecordCacheHit(task string) {
	cacheHits.WithLabelValues(task).Inc()
}

// RecordCacheMiss records a response cache miss.
func RecordCacheMiss(task string) {
	cacheMisses.WithLabelValues(task).Inc()
}

// UpdateCacheEntries updates the cache occupancy gauge.
func UpdateCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

// RecordFallback records an escalation to the fallback model.
func RecordFallback(task, reason string) {
	fallbacksTotal.WithLabelValues(task, reason).Inc()
}

// RecordRepair records a JSON repair attempt outcome.
func RecordRepair(status string) {
	repairsTotal.WithLabelValues(status).Inc()
}

// RecordBreakerOpen records a circuit breaker opening for a model.
func RecordBreakerOpen(model string) {
	breakerOpensTotal.WithLabelValues(model).Inc()
}

// UpdateModelAvailability updates the installed gauge for a model.
func UpdateModelAvailability(model string, available bool) {
	value := 0.0
	if available {
		value = 1.0
	}
	modelAvailability.WithLabelValues(model).Set(value)
}
