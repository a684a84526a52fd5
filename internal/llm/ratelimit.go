package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter is a token bucket refilled lazily from elapsed time.
type rateLimiter struct {
	lastRefill time.Time
	interval   time.Duration
	tokens     int
	capacity   int
	mu         sync.Mutex
}

// newRateLimiter creates a new rate limiter with the specified requests per minute.
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}

	return &rateLimiter{
		tokens:     requestsPerMinute,
		capacity:   requestsPerMinute,
		interval:   time.Minute / time.Duration(requestsPerMinute),
		lastRefill: time.Now(),
	}
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		delay := rl.reserve(time.Now())
		if delay <= 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// reserve takes a token and returns zero, or returns how long until the next
// token is due.
func (rl *rateLimiter) reserve(now time.Time) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked(now)
	if rl.tokens > 0 {
		rl.tokens--
		return 0
	}
	return rl.interval - now.Sub(rl.lastRefill)
}

func (rl *rateLimiter) refillLocked(now time.Time) {
	if rl.tokens >= rl.capacity {
		rl.lastRefill = now
		return
	}

	earned := int(now.Sub(rl.lastRefill) / rl.interval)
	if earned <= 0 {
		return
	}
	rl.tokens = min(rl.capacity, rl.tokens+earned)
	rl.lastRefill = rl.lastRefill.Add(time.Duration(earned) * rl.interval)
}

// available returns the current token count.
func (rl *rateLimiter) available() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked(time.Now())
	return rl.tokens
}
