// Package ratelimit throttles inbound actions per sender.
//
// Limiters keep their state in process memory, which is only correct for a single
// process. A deployment with several instances needs a Limiter backed by shared state.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Defaults match the webhook limits of 30 actions per minute per channel.
const (
	DefaultMax    = 30
	DefaultWindow = time.Minute
)

// Strategy names a limiter implementation.
type Strategy string

// Supported strategies.
const (
	StrategyWindow Strategy = "window"
	StrategyBucket Strategy = "bucket"
)

// Limiter decides whether the sender identified by key may act now.
type Limiter interface {
	Allow(key string) bool
}

// New builds a limiter for strategy allowing max actions per window.
func New(strategy Strategy, max int, window time.Duration) (Limiter, error) {
	if max <= 0 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}

	switch strategy {
	case StrategyWindow, "":
		return NewSlidingWindow(max, window), nil
	case StrategyBucket:
		return NewTokenBucket(max, window), nil
	default:
		return nil, fmt.Errorf("unknown rate limit strategy %q", strategy)
	}
}

// SlidingWindow allows at most Max actions per key within any Window-long interval.
// Keys with no action inside the window are evicted, at most once per window.
type SlidingWindow struct {
	now       func() time.Time
	hits      map[string][]time.Time
	lastSweep time.Time
	window    time.Duration
	max       int
	mu        sync.Mutex
}

// NewSlidingWindow creates a sliding window limiter.
func NewSlidingWindow(max int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		max:    max,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// Allow records an action for key and reports whether it fits in the window.
// Rejected actions are not recorded.
func (w *SlidingWindow) Allow(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.window)
	w.sweep(now, cutoff)

	hits := w.hits[key]
	live := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}

	if len(live) >= w.max {
		w.hits[key] = live
		return false
	}

	w.hits[key] = append(live, now)
	return true
}

// sweep drops keys whose latest action is older than cutoff. Callers hold mu.
func (w *SlidingWindow) sweep(now, cutoff time.Time) {
	if now.Sub(w.lastSweep) < w.window {
		return
	}
	w.lastSweep = now
	for key, hits := range w.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(w.hits, key)
		}
	}
}

// TokenBucket refills each key at max/window per second with a burst of max.
// It smooths bursts instead of counting them against a hard window. A key idle for a
// whole window has a full bucket again, so it is evicted and recreated on demand.
type TokenBucket struct {
	now       func() time.Time
	buckets   map[string]*bucket
	lastSweep time.Time
	limit     rate.Limit
	window    time.Duration
	burst     int
	mu        sync.Mutex
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewTokenBucket creates a token bucket limiter.
func NewTokenBucket(max int, window time.Duration) *TokenBucket {
	return &TokenBucket{
		limit:   rate.Every(window / time.Duration(max)),
		burst:   max,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow consumes a token for key if one is available.
func (b *TokenBucket) Allow(key string) bool {
	now := b.now()

	b.mu.Lock()
	b.sweep(now)
	bk, ok := b.buckets[key]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.buckets[key] = bk
	}
	bk.lastSeen = now
	b.mu.Unlock()

	return bk.limiter.AllowN(now, 1)
}

// sweep drops buckets idle for at least a window. Callers hold mu.
func (b *TokenBucket) sweep(now time.Time) {
	if now.Sub(b.lastSweep) < b.window {
		return
	}
	b.lastSweep = now
	for key, bk := range b.buckets {
		if now.Sub(bk.lastSeen) >= b.window {
			delete(b.buckets, key)
		}
	}
}
