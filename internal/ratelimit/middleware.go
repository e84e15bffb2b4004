package ratelimit

import (
	"net/http"
	"strconv"

	limiter "github.com/ulule/limiter/v3"

	"github.com/danupratama/backend-kasir/internal/common"
)

// Middleware enforces a per-client rate limit on the wrapped routes. The key
// is the client IP; a POS terminal that trips the limit gets a 429 with the
// standard rate-limit headers.
func Middleware(l *limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}
			key := common.ClientIP(r)
			lctx, err := l.Get(r.Context(), key)
			if err != nil {
				// Limiter store trouble must not take the API down.
				next.ServeHTTP(w, r)
				return
			}
			headers := w.Header()
			headers.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			headers.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			headers.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			if lctx.Reached {
				common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
