package middleware

import (
	"context"
	"log/slog"
	"time"

	"leadbook/internal/ratelimit/models"
	"leadbook/pkg/platform/circuit"
)

// Store counts requests against a key in a fixed window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// Limiter checks a primary store and switches to an in-process fallback
// while the primary keeps failing. Without a fallback, errors propagate and
// the middleware fails open.
type Limiter struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewLimiter composes a primary store with an optional fallback.
func NewLimiter(primary, fallback Store, logger *slog.Logger) *Limiter {
	return &Limiter{
		primary:  primary,
		fallback: fallback,
		breaker:  circuit.New("ratelimit"),
		logger:   logger,
	}
}

func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	res, err := l.primary.Allow(ctx, key, limit, window)
	if err == nil {
		if _, change := l.breaker.RecordSuccess(); change.Closed && l.logger != nil {
			l.logger.Info("rate limit store recovered, circuit closed")
		}
		return res, nil
	}

	useFallback, change := l.breaker.RecordFailure()
	if change.Opened && l.logger != nil {
		l.logger.Warn("rate limit store failing, using in-memory fallback", "error", err)
	}
	if useFallback && l.fallback != nil {
		return l.fallback.Allow(ctx, key, limit, window)
	}
	return nil, err
}

// Degraded reports whether checks are currently served by the fallback.
func (l *Limiter) Degraded() bool {
	return l.fallback != nil && l.breaker.IsOpen()
}
