package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zoeholiday/pricingservice/internal/circuitbreaker"
	"github.com/zoeholiday/pricingservice/internal/metrics"
)

// Limiter decides whether a request identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// AllowAll is a Limiter that never rejects. Used when rate limiting is disabled.
type AllowAll struct{}

func (AllowAll) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}

// fixedWindowScript increments the window counter and reports whether the
// request fits. KEYS[1] window key, ARGV[1] max requests, ARGV[2] window seconds.
var fixedWindowScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[2])
	end
	if current > tonumber(ARGV[1]) then
		return 0
	end
	return 1
`)

// RedisFixedWindow implements a Redis-based fixed window rate limiter
type RedisFixedWindow struct {
	client      redis.Scripter
	windowSize  time.Duration
	maxRequests int
	keyPrefix   string
	now         func() time.Time
}

// NewRedisFixedWindow creates a new Redis-based fixed window rate limiter
func NewRedisFixedWindow(client redis.Scripter, windowSize time.Duration, maxRequests int) *RedisFixedWindow {
	return &RedisFixedWindow{
		client:      client,
		windowSize:  windowSize,
		maxRequests: maxRequests,
		keyPrefix:   "pricing:rate_limit",
		now:         time.Now,
	}
}

// Allow counts the request against the current window of key
func (rfw *RedisFixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	windowSeconds := int(rfw.windowSize / time.Second)
	if windowSeconds < 1 {
		windowSeconds = 1
	}

	result, err := fixedWindowScript.Run(ctx, rfw.client, []string{rfw.windowKey(key)},
		rfw.maxRequests, windowSeconds).Int64()
	metrics.RecordRedisOperation("rate_limit", err)
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	return result == 1, nil
}

func (rfw *RedisFixedWindow) windowKey(key string) string {
	windowStart := rfw.now().Truncate(rfw.windowSize)
	return fmt.Sprintf("%s:%s:%d", rfw.keyPrefix, key, windowStart.Unix())
}

// breakerLimiter stops calling a failing limiter while its circuit is open
type breakerLimiter struct {
	limiter Limiter
	breaker *circuitbreaker.CircuitBreaker
}

// WithCircuitBreaker guards limiter with breaker. While the circuit is open,
// Allow returns circuitbreaker.ErrCircuitOpen without calling limiter.
func WithCircuitBreaker(limiter Limiter, breaker *circuitbreaker.CircuitBreaker) Limiter {
	return &breakerLimiter{limiter: limiter, breaker: breaker}
}

func (b *breakerLimiter) Allow(ctx context.Context, key string) (bool, error) {
	var allowed bool
	err := b.breaker.Execute(func() error {
		var err error
		allowed, err = b.limiter.Allow(ctx, key)
		return err
	})
	return allowed, err
}
