package ratelimit

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter keeps one token bucket per key in process memory. Quotas are per replica.
// Buckets idle for longer than the refill period are dropped on the next sweep.
type LocalLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idle    time.Duration
	buckets map[string]*bucket
	now     func() time.Time
	swept   time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter allows limit requests per window with bursts of up to limit.
func NewLocalLimiter(limit int, window time.Duration) (*LocalLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	return &LocalLimiter{
		limit:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		idle:    window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}, nil
}

// Allow consumes one token from key's bucket.
func (l *LocalLimiter) Allow(key string) bool {
	if l == nil {
		return false
	}
	key = normalizeKey(key)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.swept) < l.idle {
		return
	}
	l.swept = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, key)
		}
	}
}
