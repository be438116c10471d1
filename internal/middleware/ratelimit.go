package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"checkin-offers-api/internal/metrics"
)

// RateLimit limits each client to requests per window. Clients are keyed by
// r.RemoteAddr, so forwarding headers only count when chi's RealIP middleware
// has been installed in front of it for a trusted proxy.
//
// httprate sets X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset
// and, on rejection, Retry-After.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

func rateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	metrics.RateLimitHits.Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"rate limit exceeded"}`))
}
