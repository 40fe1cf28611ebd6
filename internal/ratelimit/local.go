package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTimeout is how long a client bucket is kept without traffic
const idleTimeout = 10 * time.Minute

type bucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LocalTokenBucket limits each key with an in-process token bucket. It is used
// when rate limiting is enabled without Redis, so limits are per instance.
type LocalTokenBucket struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	limit       rate.Limit
	burst       int
	lastCleanup time.Time
	now         func() time.Time
}

// NewLocalTokenBucket allows maxRequests per window for each key, refilled
// evenly across the window.
func NewLocalTokenBucket(window time.Duration, maxRequests int) *LocalTokenBucket {
	if maxRequests < 1 {
		maxRequests = 1
	}
	return &LocalTokenBucket{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(window / time.Duration(maxRequests)),
		burst:   maxRequests,
		now:     time.Now,
	}
}

// Allow takes a token from the bucket of key
func (l *LocalTokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanup(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastAccess = now

	return b.limiter.AllowN(now, 1), nil
}

// cleanup drops idle buckets. Must be called with mu held.
func (l *LocalTokenBucket) cleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < idleTimeout {
		return
	}
	l.lastCleanup = now
	for key, b := range l.buckets {
		if now.Sub(b.lastAccess) > idleTimeout {
			delete(l.buckets, key)
		}
	}
}
