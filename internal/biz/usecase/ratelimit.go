package usecase

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitConfig bounds the action rate of a single Discord user.
type RateLimitConfig struct {
	Enabled     bool
	Window      time.Duration // sliding window length
	MaxActions  int           // max recorded actions inside the window
	MinInterval time.Duration // min spacing between consecutive actions
}

// RateLimiter is a per-actor sliding-window throttle. It is purely in
// memory; buckets reset on restart. It exists to bound damage from a
// compromised or misbehaving linked account, not to be an exact limit.
type RateLimiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	buckets map[uint64][]time.Time
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		buckets: make(map[uint64][]time.Time),
		now:     time.Now,
	}
}

// Check records one action for the actor if allowed. Rejections do not
// consume window capacity. The returned reason is user-visible.
func (r *RateLimiter) Check(actorID uint64, action string) (string, bool) {
	if !r.cfg.Enabled {
		return "", true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	bucket := r.buckets[actorID]

	// Evict timestamps that fell out of the window.
	cutoff := now.Add(-r.cfg.Window)
	for len(bucket) > 0 && bucket[0].Before(cutoff) {
		bucket = bucket[1:]
	}

	if len(bucket) > 0 && r.cfg.MinInterval > 0 && now.Sub(bucket[len(bucket)-1]) < r.cfg.MinInterval {
		r.buckets[actorID] = bucket
		return fmt.Sprintf("Rate limit for %s: wait %d ms", action, r.cfg.MinInterval.Milliseconds()), false
	}

	if r.cfg.MaxActions > 0 && len(bucket) >= r.cfg.MaxActions {
		r.buckets[actorID] = bucket
		return fmt.Sprintf("Rate limit exceeded for %s", action), false
	}

	r.buckets[actorID] = append(bucket, now)
	return "", true
}
