package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/DianaTao/solace/services/ratelimit"
	"github.com/DianaTao/solace/utils"
	"go.uber.org/zap"
)

// RateLimiter checks a client against its request budget
type RateLimiter interface {
	Allow(ctx context.Context, clientID string) (*ratelimit.Result, error)
}

// RateLimitMetrics counts limiter decisions
type RateLimitMetrics interface {
	RateLimited()
	RateLimitFailedOpen()
}

// exemptPaths are never rate limited
var exemptPaths = map[string]bool{
	"/api/health":   true,
	"/healthz":      true,
	"/readyz":       true,
	"/metrics":      true,
	"/docs":         true,
	"/openapi.json": true,
}

// RateLimit limits requests per client IP. Store failures let the request
// through.
func RateLimit(limiter RateLimiter, metrics RateLimitMetrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptPaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Allow(r.Context(), ClientIP(r))
			if err != nil {
				logger.Error("rate limit check failed, allowing request",
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.Error(err))
				metrics.RateLimitFailedOpen()
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				metrics.RateLimited()
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
				if err := utils.WriteRequestError(w, r, http.StatusTooManyRequests, "rate_limit_exceeded",
					"too many requests, please retry later"); err != nil {
					logger.Error("failed to write rate limit response", zap.Error(err))
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the caller's address without the port. TrustedRealIP
// has already applied forwarding headers from trusted proxies.
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}
