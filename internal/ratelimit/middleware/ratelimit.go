package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"leadbook/internal/platform/metrics"
	"leadbook/internal/ratelimit/models"
	dErrors "leadbook/pkg/domain-errors"
	"leadbook/pkg/platform/httputil"
	metadata "leadbook/pkg/platform/middleware/metadata"
	"leadbook/pkg/requestcontext"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Middleware struct {
	limiter  RateLimiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

func New(limiter RateLimiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit applies policy per authenticated user, or per client IP when the
// request carries no user. Store errors let the request through.
func (m *Middleware) Limit(policy models.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			kind, id := subject(r)
			key := models.Key(policy.Name, kind, id)

			result, err := m.limiter.Allow(ctx, key, policy.Limit, policy.Window)
			if err != nil {
				m.logger.Error("failed to check rate limit", "error", err, "policy", policy.Name, "subject", kind)
				next.ServeHTTP(w, r)
				return
			}

			// Add headers regardless of outcome
			addRateLimitHeaders(w, result)
			if d, ok := m.limiter.(interface{ Degraded() bool }); ok && d.Degraded() {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}

			if !result.Allowed {
				m.metrics.IncrementRateLimited(policy.Name)
				m.logger.Warn("rate limit exceeded", "policy", policy.Name, "subject", kind)
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func subject(r *http.Request) (kind, id string) {
	ctx := r.Context()
	if userID := requestcontext.UserID(ctx); userID != "" {
		return models.SubjectUser, userID
	}
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		return models.SubjectIP, ip
	}
	return models.SubjectIP, metadata.ClientIPFromRequest(r)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteError(w, dErrors.New(dErrors.CodeTooManyRequests, "Too many requests. Please try again later."))
}
