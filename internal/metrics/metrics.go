package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TransitionTotal counts successful lifecycle transitions by transaction log type.
	TransitionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendhub_transitions_total",
			Help: "Total number of successful request lifecycle transitions",
		},
		[]string{"type"},
	)

	// AuditWriteFailureTotal counts transaction log writes that failed after
	// the documented mutation committed. Nonzero values need manual reconciliation.
	AuditWriteFailureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendhub_audit_write_failures_total",
			Help: "Total number of failed transaction log writes for committed mutations",
		},
		[]string{"type"},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, TransitionTotal, AuditWriteFailureTotal)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /v1/requests/123/approve -> /v1/requests/{id}/approve.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncTransition records one successful lifecycle transition of the given type.
func IncTransition(logType string) {
	TransitionTotal.WithLabelValues(logType).Inc()
}

// IncAuditWriteFailure records a transaction log write that failed after its mutation committed.
func IncAuditWriteFailure(logType string) {
	AuditWriteFailureTotal.WithLabelValues(logType).Inc()
}
