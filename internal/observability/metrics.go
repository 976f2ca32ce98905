package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partner_gateway_requests_total",
			Help: "Partner API calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "partner_gateway_request_duration_seconds",
			Help:    "Duration of partner API calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transaction_attempts_total",
			Help: "Payment and refund submissions by terminal state.",
		},
		[]string{"kind", "state"},
	)
	callbackResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callback_resolutions_total",
			Help: "Inbound callbacks by resolution status.",
		},
		[]string{"status"},
	)
	directoryRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_directory_refresh_total",
			Help: "User directory refreshes by result.",
		},
		[]string{"result"},
	)
)

// ObserveGatewayCall records one partner API call.
func ObserveGatewayCall(operation, outcome string, elapsed time.Duration) {
	gatewayRequestsTotal.WithLabelValues(operation, outcome).Inc()
	gatewayRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// CountAttempt records the terminal state of a payment or refund submission.
func CountAttempt(kind, state string) {
	attemptsTotal.WithLabelValues(kind, state).Inc()
}

// CountCallback records how an inbound callback was resolved.
func CountCallback(status string) {
	callbackResolutionsTotal.WithLabelValues(status).Inc()
}

// CountDirectoryRefresh records a user directory refresh.
func CountDirectoryRefresh(result string) {
	directoryRefreshTotal.WithLabelValues(result).Inc()
}

// NewMetricsMiddleware creates HTTP middleware for collecting Prometheus metrics.
func NewMetricsMiddleware(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				duration := time.Since(start)
				path := r.URL.Path
				// Route patterns keep label cardinality bounded.
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					path = rctx.RoutePattern()
				}

				httpRequestDuration.WithLabelValues(serviceName, r.Method, path).Observe(duration.Seconds())
				httpRequestsTotal.WithLabelValues(serviceName, r.Method, path, strconv.Itoa(ww.Status())).Inc()
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
