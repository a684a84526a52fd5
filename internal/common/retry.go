package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrRateLimit indicates that the API rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

const (
	defaultInitialDelay = 100 * time.Millisecond
	defaultMaxDelay     = 30 * time.Second
	defaultMultiplier   = 2.0
)

// RetryOptions configures WithRetry. Zero values fall back to one attempt,
// a 100ms first delay doubling up to 30s.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 1
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = defaultInitialDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = defaultMaxDelay
	}
	if o.Multiplier <= 0 {
		o.Multiplier = defaultMultiplier
	}
	return o
}

// wait returns how long to sleep before the next attempt. Quota errors
// wait the longest.
func (o RetryOptions) wait(delay time.Duration, err error) time.Duration {
	if errors.Is(err, ErrRateLimit) {
		return o.MaxDelay
	}
	return min(delay, o.MaxDelay)
}

// RetryableError marks whether a failure may be attempted again.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Retryable marks err as transient.
func Retryable(err error) error {
	return &RetryableError{Err: err, Retryable: true}
}

// Permanent marks err so WithRetry gives up immediately.
func Permanent(err error) error {
	return &RetryableError{Err: err, Retryable: false}
}

// WithRetry runs operation until it succeeds, fails permanently or runs out
// of attempts. A single attempt returns the operation's error unchanged;
// exhausting several attempts wraps the last error with ErrMaxRetries.
func WithRetry(ctx context.Context, operation func() error, opts RetryOptions) error {
	opts = opts.withDefaults()
	delay := opts.InitialDelay

	var err error
	for attempt := 1; ; attempt++ {
		if err = operation(); err == nil {
			return nil
		}

		// Unmarked errors are retried; only an explicit Permanent mark stops early.
		var marked *RetryableError
		if errors.As(err, &marked) && !IsRetryable(err) {
			return err
		}
		if opts.MaxAttempts == 1 {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, err)
		}

		pause := opts.wait(delay, err)
		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", pause,
			"error", err)

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * opts.Multiplier)
	}
}
