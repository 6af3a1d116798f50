package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadbook/internal/platform/metrics"
	"leadbook/internal/ratelimit/models"
	"leadbook/internal/ratelimit/store/bucket"
	"leadbook/pkg/requestcontext"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type failingStore struct{ calls int }

func (f *failingStore) Allow(context.Context, string, int, time.Duration) (*models.RateLimitResult, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func requestAs(userID, ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/buyers", nil)
	ctx := req.Context()
	if userID != "" {
		ctx = requestcontext.WithUserID(ctx, userID)
	}
	if ip != "" {
		ctx = requestcontext.WithClientMetadata(ctx, ip, "test")
	}
	return req.WithContext(ctx)
}

func TestLimit_PerUser(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt := metrics.New(reg)
	mw := New(bucket.NewInMemoryBucketStore(), discard, WithMetrics(mt))
	h := mw.Limit(models.BuyerCreatePolicy(2, time.Minute))(okHandler())

	for range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestAs("alice", "10.0.0.1"))
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs("alice", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate_limit_exceeded","error_description":"Too many requests. Please try again later."}`, rec.Body.String())
	assert.InDelta(t, 1, testutil.ToFloat64(mt.RateLimited.WithLabelValues("buyer_create")), 0)

	// Same IP, different user has its own window.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs("bob", "10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLimit_FallsBackToClientIP(t *testing.T) {
	mw := New(bucket.NewInMemoryBucketStore(), discard)
	h := mw.Limit(models.BuyerUpdatePolicy(1, time.Minute))(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs("", "10.0.0.1"))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs("", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs("", "10.0.0.2"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLimit_PoliciesAreIndependent(t *testing.T) {
	mw := New(bucket.NewInMemoryBucketStore(), discard)
	create := mw.Limit(models.BuyerCreatePolicy(1, time.Minute))(okHandler())
	update := mw.Limit(models.BuyerUpdatePolicy(1, time.Minute))(okHandler())

	rec := httptest.NewRecorder()
	create.ServeHTTP(rec, requestAs("alice", ""))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	update.ServeHTTP(rec, requestAs("alice", ""))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLimit_Disabled(t *testing.T) {
	store := &failingStore{}
	mw := New(store, discard, WithDisabled(true))
	h := mw.Limit(models.BuyerCreatePolicy(0, time.Minute))(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs("alice", ""))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, store.calls)
}

func TestLimit_FailsOpenOnStoreError(t *testing.T) {
	mw := New(&failingStore{}, discard)
	h := mw.Limit(models.BuyerCreatePolicy(1, time.Minute))(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs("alice", ""))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestLimiter_SwitchesToFallback(t *testing.T) {
	primary := &failingStore{}
	limiter := NewLimiter(primary, bucket.NewInMemoryBucketStore(), discard)
	mw := New(limiter, discard)
	h := mw.Limit(models.BuyerCreatePolicy(10, time.Minute))(okHandler())

	// Below the failure threshold requests pass without limit headers.
	for range 4 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestAs("alice", ""))
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs("alice", ""))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "degraded", rec.Header().Get("X-RateLimit-Status"))
	assert.True(t, limiter.Degraded())
	assert.Equal(t, 5, primary.calls)
}

func TestLimiter_WithoutFallbackReturnsError(t *testing.T) {
	limiter := NewLimiter(&failingStore{}, nil, discard)
	for range 6 {
		_, err := limiter.Allow(context.Background(), "k", 1, time.Minute)
		require.Error(t, err)
	}
	assert.False(t, limiter.Degraded())
}

// flakyStore fails while down and otherwise delegates to an in-memory store.
type flakyStore struct {
	down  bool
	inner *bucket.InMemoryBucketStore
}

func (f *flakyStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	if f.down {
		return nil, errors.New("i/o timeout")
	}
	return f.inner.Allow(ctx, key, limit, window)
}

func TestLimiter_RecoversAfterPrimaryHeals(t *testing.T) {
	primary := &flakyStore{down: true, inner: bucket.NewInMemoryBucketStore()}
	limiter := NewLimiter(primary, bucket.NewInMemoryBucketStore(), discard)
	ctx := context.Background()

	for range 5 {
		_, _ = limiter.Allow(ctx, "rl:buyer_update:user:alice", 6, time.Minute)
	}
	require.True(t, limiter.Degraded())

	primary.down = false
	for i := range 3 {
		res, err := limiter.Allow(ctx, "rl:buyer_update:user:alice", 6, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 6-(i+1), res.Remaining, "healthy primary answers while the circuit closes")
	}
	assert.False(t, limiter.Degraded())
}
