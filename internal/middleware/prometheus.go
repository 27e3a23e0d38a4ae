package middleware

import (
	"net/http"
	"time"

	"github.com/campuslend/lendhub/internal/metrics"
)

// Prometheus records duration and count for every request except scrapes of
// /metrics itself. Path labels are normalized so each request id does not
// become its own series.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		if r.URL.Path == "/metrics" {
			return
		}
		metrics.RecordRequest(r.Method, r.URL.Path, sw.status, time.Since(start).Seconds())
	})
}
