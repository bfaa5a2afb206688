package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/hszk-dev/clipshare/internal/infrastructure/metrics"
	"github.com/hszk-dev/clipshare/internal/infrastructure/ratelimit"
)

// Limiter is satisfied by ratelimit.RedisLimiter.
type Limiter interface {
	Allow(ctx context.Context, clientKey string) (ratelimit.Decision, error)
	Rule() ratelimit.Rule
}

// RateLimit enforces limiter per client IP and advertises the quota with
// RateLimit-* headers. Limiter backend errors are logged and the request is
// allowed through.
func RateLimit(limiter Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	rule := limiter.Rule()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.Warn("rate limiter unavailable",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("limiter", rule.Name),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			reset := strconv.Itoa(int(math.Ceil(decision.ResetAfter.Seconds())))
			h := w.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("RateLimit-Reset", reset)

			if !decision.Allowed {
				metrics.RateLimitRejectionsTotal.WithLabelValues(rule.Name).Inc()
				h.Set("Retry-After", reset)
				writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP expects chi's RealIP to have already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
