// Package middleware throttles callers per client IP and endpoint class.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"spverifier/internal/platform/metrics"
	"spverifier/internal/ratelimit/models"
	"spverifier/pkg/platform/httputil"
	"spverifier/pkg/platform/middleware/metadata"
	"spverifier/pkg/requestcontext"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit models.Limit) (*models.Result, error)
}

type Middleware struct {
	limiter  Limiter
	limits   map[models.Class]models.Limit
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) { m.disabled = disabled }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) { m.metrics = mt }
}

// New builds the middleware. Classes missing from limits are not throttled.
func New(limiter Limiter, limits map[models.Class]models.Limit, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{limiter: limiter, limits: limits, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Handler applies the limit for the request's class, keyed by client IP.
// A limiter error lets the request through.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}
		class, ok := models.ClassFor(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		limit, ok := m.limits[class]
		if !ok || limit.Requests <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := metadata.GetClient(ctx).IP
		result, err := m.limiter.Allow(ctx, string(class)+":"+ip, limit)
		if err != nil {
			m.logger.ErrorContext(ctx, "rate limit check failed", "error", err, "class", class)
			next.ServeHTTP(w, r)
			return
		}

		addHeaders(w, result)
		if !result.Allowed {
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"class", class,
				"client_ip", ip,
				"request_id", requestcontext.RequestID(ctx),
			)
			if m.metrics != nil {
				m.metrics.IncrementRateLimited(string(class))
			}
			writeExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func addHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Try again later.",
		RetryAfter: result.RetryAfter,
	})
}
