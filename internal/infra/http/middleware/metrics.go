package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	leadsCaptured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_captured_total",
			Help: "Total number of leads captured by the public form",
		},
		[]string{"source"},
	)

	leadStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_status_changes_total",
			Help: "Total number of lead status updates",
		},
		[]string{"origin"},
	)

	bulkOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_bulk_operations_total",
			Help: "Total number of bulk lead operations",
		},
		[]string{"operation", "result"},
	)

	sideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_side_effect_failures_total",
			Help: "Best-effort stages (history, cache, events) that failed after a committed mutation",
		},
		[]string{"mutation", "stage"},
	)

	rateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lead_capture_rate_limited_total",
			Help: "Public capture requests rejected by the rate limiter",
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern usa o padrão do chi (/admin/leads/{id}) para não explodir a cardinalidade.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func RecordLeadCaptured(source string) {
	if source == "" {
		source = "direct"
	}
	leadsCaptured.WithLabelValues(source).Inc()
}

func RecordStatusChange(origin string, count int) {
	leadStatusChanges.WithLabelValues(origin).Add(float64(count))
}

func RecordBulkOperation(operation string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	bulkOperations.WithLabelValues(operation, result).Inc()
}

func RecordRateLimited() {
	rateLimited.Inc()
}

// StageFailureCounter exports best-effort stage failures as a Prometheus counter.
type StageFailureCounter struct{}

func (StageFailureCounter) StageFailed(mutation, stage string) {
	sideEffectFailures.WithLabelValues(mutation, stage).Inc()
}
