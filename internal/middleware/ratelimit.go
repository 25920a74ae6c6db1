// File: internal/middleware/ratelimit.go
package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/iyunix/go-sage/internal/ratelimit"
	"github.com/iyunix/go-sage/internal/services"
)

// RateLimitMiddleware limits requests per client IP as resolved by the
// limiter's trusted proxies. A 2xx response clears
// the client's attempts so only failures accumulate.
func RateLimitMiddleware(limiter *ratelimit.MemoryRateLimiter, name string, logger services.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := limiter.ClientIP(r)
			key := name + ":" + clientIP

			d := limiter.Allow(key)
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", d.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", d.Remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", d.ResetTime.Unix()))

			if !d.Allowed {
				logger.Warn("rate limit exceeded", "endpoint", name, "client_ip", clientIP, "banned", d.Banned)
				if d.RetryAfter > 0 {
					w.Header().Set("Retry-After", fmt.Sprintf("%.0f", d.RetryAfter.Seconds()))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error":      fmt.Sprintf("Too many attempts. Try again in %d minutes.", int(d.RetryAfter.Minutes())+1),
					"retryAfter": int(d.RetryAfter.Seconds()),
					"banned":     d.Banned,
				})
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status >= 200 && rec.status < 300 {
				limiter.Reset(key)
			}
		})
	}
}
