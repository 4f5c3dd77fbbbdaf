// Package metrics exposes console and poller metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexus_console_http_requests_total",
			Help: "Total number of admin API requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexus_console_http_request_duration_seconds",
			Help:    "Admin API request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		},
		[]string{"method", "route"},
	)

	// Usage log ingest
	UsageLogsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexus_console_usage_logs_ingested_total",
			Help: "Usage logs recorded from the gateway",
		},
		[]string{"status_class"},
	)

	RequestFiltersCached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nexus_console_request_filters_cached",
			Help: "Enabled request filters held in the filter cache",
		},
	)

	// Poller metrics
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexus_console_polls_total",
			Help: "Usage-log list fetches by outcome",
		},
		[]string{"trigger", "result"}, // result: ok/error/stale/skipped
	)

	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nexus_console_poll_duration_seconds",
			Help:    "Usage-log list fetch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
	)

	NewRowsHighlighted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nexus_console_new_rows_highlighted_total",
			Help: "Rows flagged as new by refresh-triggered fetches",
		},
	)
)

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StatusClass buckets an HTTP status code as "2xx", "4xx" and so on.
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

// Middleware records request counts and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
