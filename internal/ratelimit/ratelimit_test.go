package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zoeholiday/pricingservice/internal/circuitbreaker"
)

func newTestLimiter(t *testing.T, max int) (*RedisFixedWindow, *miniredis.Miniredis, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, time.May, 10, 9, 0, 0, 0, time.UTC)
	limiter := NewRedisFixedWindow(client, time.Minute, max)
	limiter.now = func() time.Time { return now }
	return limiter, mr, &now
}

func TestRedisFixedWindow_Allow(t *testing.T) {
	limiter, mr, _ := newTestLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, allowed)

	// other clients have their own window
	allowed, err = limiter.Allow(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	key := limiter.windowKey("203.0.113.7")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))
}

func TestRedisFixedWindow_NewWindowResets(t *testing.T) {
	limiter, _, now := newTestLimiter(t, 1)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, allowed)

	*now = now.Add(time.Minute)
	allowed, err = limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisFixedWindow_RedisDown(t *testing.T) {
	limiter, mr, _ := newTestLimiter(t, 1)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "client")
	assert.Error(t, err)
}

func TestAllowAll(t *testing.T) {
	allowed, err := AllowAll{}.Allow(context.Background(), "anyone")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLocalTokenBucket(t *testing.T) {
	now := time.Date(2026, time.May, 10, 9, 0, 0, 0, time.UTC)
	limiter := NewLocalTokenBucket(time.Minute, 2)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "client")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, _ := limiter.Allow(ctx, "client")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow(ctx, "other")
	assert.True(t, allowed)

	// one token refills every 30s
	now = now.Add(30 * time.Second)
	allowed, _ = limiter.Allow(ctx, "client")
	assert.True(t, allowed)
}

func TestLocalTokenBucket_DropsIdleBuckets(t *testing.T) {
	now := time.Date(2026, time.May, 10, 9, 0, 0, 0, time.UTC)
	limiter := NewLocalTokenBucket(time.Minute, 5)
	limiter.now = func() time.Time { return now }

	_, _ = limiter.Allow(context.Background(), "a")
	now = now.Add(idleTimeout + time.Minute)
	_, _ = limiter.Allow(context.Background(), "b")

	assert.Len(t, limiter.buckets, 1)
	assert.Contains(t, limiter.buckets, "b")
}

func TestWithCircuitBreaker(t *testing.T) {
	limiter, mr, _ := newTestLimiter(t, 10)
	breaker := circuitbreaker.New("rate-limit-test", circuitbreaker.Config{
		MaxFailures:      1,
		Timeout:          time.Hour,
		SuccessThreshold: 1,
	}, zap.NewNop())
	guarded := WithCircuitBreaker(limiter, breaker)
	ctx := context.Background()

	allowed, err := guarded.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, allowed)

	mr.Close()
	_, err = guarded.Allow(ctx, "client")
	require.Error(t, err)
	assert.NotErrorIs(t, err, circuitbreaker.ErrCircuitOpen)

	_, err = guarded.Allow(ctx, "client")
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
}
