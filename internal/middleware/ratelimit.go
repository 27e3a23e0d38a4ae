package middleware

import (
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimit throttles requests per client IP with one token bucket per IP.
// perMinute is the sustained rate, burst the bucket size. Buckets are kept
// for the process lifetime; the IP space of a campus deployment is small
// enough that eviction is not worth the bookkeeping.
func RateLimit(perMinute float64, burst int) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*rate.Limiter)
		limit   = rate.Limit(perMinute / 60.0)
	)

	take := func(ip string) bool {
		mu.Lock()
		b, ok := buckets[ip]
		if !ok {
			b = rate.NewLimiter(limit, burst)
			buckets[ip] = b
		}
		mu.Unlock()
		return b.Allow()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !take(clientIP(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the client address behind at most one trusted proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// AuthRateLimit throttles login and bootstrap: 10 per minute per IP.
func AuthRateLimit() func(http.Handler) http.Handler {
	return RateLimit(10, 5)
}

// SubmitRateLimit throttles public request submission, the only
// unauthenticated write: 30 per minute per IP.
func SubmitRateLimit() func(http.Handler) http.Handler {
	return RateLimit(30, 10)
}
