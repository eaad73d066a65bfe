// Package retry provides a fixed-delay, time-budgeted retry loop.
//
// The loop never inspects the error returned by an operation: every failure
// is retried until the wall-clock budget is spent. There is no exponential
// backoff and no jitter. Callers that need to treat some failures as final
// should decide so above this layer.
package retry

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultTimeout = 60 * time.Second
	defaultDelay   = 10 * time.Second
)

// Config holds retry configuration.
type Config struct {
	// Timeout is the wall-clock budget for all attempts.
	Timeout time.Duration
	// Delay is the fixed pause between two attempts.
	Delay time.Duration
	// OnRetry is called after every failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// WithTimeout sets the wall-clock budget.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithDelay sets the fixed delay between attempts.
func WithDelay(d time.Duration) Option {
	return func(c *Config) {
		c.Delay = d
	}
}

// WithOnRetry registers a callback invoked before each retry sleep.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// ExhaustedError is returned when the budget runs out before the operation succeeds.
type ExhaustedError struct {
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts in %v: %v",
		e.Attempts, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Until runs operation until it returns nil or the budget is spent.
//
// Attempts start at t=0, D, 2D, ... and a new attempt is only scheduled when
// it would start within the budget, so at most ceil(T/D)+1 attempts are made
// and the call blocks for at most T plus the duration of one in-flight attempt.
// Context cancellation interrupts the wait between attempts.
func Until(ctx context.Context, operation func(context.Context) error, opts ...Option) error {
	cfg := &Config{
		Timeout: defaultTimeout,
		Delay:   defaultDelay,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	start := time.Now()
	attempts := 0

	for {
		attempts++
		err := operation(ctx)
		if err == nil {
			return nil
		}

		elapsed := time.Since(start)
		if elapsed+cfg.Delay > cfg.Timeout {
			return &ExhaustedError{Attempts: attempts, Elapsed: elapsed, Err: err}
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempts, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled after %d attempts: %w", attempts, ctx.Err())
		case <-time.After(cfg.Delay):
		}
	}
}
