// Package ratelimit provides a token bucket limiter that serializes calls to
// the Instagram endpoints, keeping the fetch rate under detection thresholds.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter gates requests under a rate limit.
type Limiter interface {
	// Allow reports whether a request may proceed right now.
	Allow() bool
	// Wait blocks until the limiter admits a request or ctx is cancelled.
	Wait(ctx context.Context) error
	// Reset restores the limiter to its initial state.
	Reset()
}

// TokenBucket implements Limiter with a fixed capacity refilled wholesale
// every refill period.
type TokenBucket struct {
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a bucket admitting capacity requests per refill
// period.
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// PerMinute is a convenience constructor for an n-requests-per-minute bucket.
func PerMinute(n int) *TokenBucket {
	return NewTokenBucket(n, time.Minute)
}

// Allow consumes a token if one is available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is cancelled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if tb.Allow() {
			return nil
		}

		tb.mu.Lock()
		wait := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()
		if wait <= 0 {
			wait = 50 * time.Millisecond
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Reset restores the bucket to full capacity.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// refill tops the bucket up if a full period has elapsed. Caller must hold
// the lock.
func (tb *TokenBucket) refill() {
	if time.Since(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = time.Now()
	}
}
