package middleware

import "net/http"

// DefaultMaxBodyBytes caps request bodies at 256 KiB. Every body the API
// accepts is a small JSON document; anything larger is not a legitimate
// request.
const DefaultMaxBodyBytes = 256 << 10

// MaxBytes caps the request body size. Oversized bodies fail the handler's
// decode with 413 via http.MaxBytesReader.
func MaxBytes(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
