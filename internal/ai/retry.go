package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// RetryOptions configures the backoff retry executor.
type RetryOptions struct {
	MaxAttempts  int           // Total attempts including the first (default: 3)
	InitialDelay time.Duration // Delay before the second attempt (default: 1s)
	MaxDelay     time.Duration // Cap on the computed delay before jitter (default: 10s)
	Multiplier   float64       // Exponential growth factor (default: 2.0)

	// RetryableCodes is matched case-insensitively as substrings of the
	// error text, in addition to the built-in transient classification.
	RetryableCodes []string

	// OnRetry is invoked after each failed attempt that will be retried,
	// once the backoff sleep has completed. Optional.
	OnRetry func(err error, attempt int)

	// MaxConcurrent caps in-flight executions across all callers sharing
	// this Retryer (0 = unlimited).
	MaxConcurrent int

	// Breaker enables fail-fast behavior after repeated failures. Nil
	// disables the circuit breaker entirely.
	Breaker *CircuitBreaker
}

// DefaultRetryOptions returns the retry policy used for provider calls
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// Retryer executes operations with exponential backoff and jitter.
// Exactly one of {successful return, final error} is observed per call to
// Execute; errors are never swallowed.
type Retryer struct {
	opts   RetryOptions
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewRetryer creates a retry executor. Zero-valued option fields fall back
// to the defaults from DefaultRetryOptions.
func NewRetryer(opts RetryOptions, logger *slog.Logger) *Retryer {
	def := DefaultRetryOptions()
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = def.InitialDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = def.MaxDelay
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = def.Multiplier
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Retryer{opts: opts, logger: logger}
	if opts.MaxConcurrent > 0 {
		r.sem = semaphore.NewWeighted(int64(opts.MaxConcurrent))
	}
	return r
}

// Execute runs fn up to MaxAttempts times. Non-retryable errors and the
// final attempt's error propagate immediately without a trailing sleep.
func (r *Retryer) Execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("%s: acquiring concurrency slot: %w", operation, err)
		}
		defer r.sem.Release(1)
	}

	var lastErr error
	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		if r.opts.Breaker != nil {
			if err := r.opts.Breaker.Allow(); err != nil {
				return fmt.Errorf("%s: %w", operation, err)
			}
		}

		err := fn(ctx)
		if err == nil {
			if r.opts.Breaker != nil {
				r.opts.Breaker.RecordSuccess()
			}
			if attempt > 1 {
				r.logger.Info("operation succeeded after retries",
					"operation", operation, "attempts", attempt)
			}
			return nil
		}
		lastErr = err

		retryable := r.isRetryable(err)
		if r.opts.Breaker != nil && retryable {
			r.opts.Breaker.RecordFailure()
		}
		if !retryable {
			r.logger.Warn("operation failed with non-retryable error",
				"operation", operation, "attempt", attempt, "error", err)
			return err
		}
		if attempt == r.opts.MaxAttempts {
			break
		}

		delay := r.backoffDelay(attempt)
		r.logger.Info("operation failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"maxAttempts", r.opts.MaxAttempts,
			"delay", delay,
			"error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: canceled during backoff: %w", operation, ctx.Err())
		}

		if r.opts.OnRetry != nil {
			r.opts.OnRetry(err, attempt)
		}
	}

	r.logger.Error("operation failed after all attempts",
		"operation", operation, "attempts", r.opts.MaxAttempts, "error", lastErr)
	return fmt.Errorf("%s failed after %d attempts: %w", operation, r.opts.MaxAttempts, lastErr)
}

// backoffDelay computes the exponential delay for the given attempt (1-based)
// and applies uniform jitter of +/-25%, floored at zero.
func (r *Retryer) backoffDelay(attempt int) time.Duration {
	delay := float64(r.opts.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= r.opts.Multiplier
		if delay >= float64(r.opts.MaxDelay) {
			delay = float64(r.opts.MaxDelay)
			break
		}
	}
	jitter := (rand.Float64()*0.5 - 0.25) * delay
	delay += jitter
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

func (r *Retryer) isRetryable(err error) bool {
	if IsRetryable(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, code := range r.opts.RetryableCodes {
		if strings.Contains(msg, strings.ToLower(code)) {
			return true
		}
	}
	return false
}

// IsRetryable classifies an error as transient. Retryable conditions are
// network resets, timeouts, DNS failures, connection refusal, HTTP 429, and
// HTTP 5xx. Other 4xx responses and unknown errors are terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())

	// Rate limits are retryable
	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") {
		return true
	}

	// Server errors are retryable
	for _, s := range []string{"500", "502", "503", "504",
		"internal server error", "bad gateway", "service unavailable", "gateway timeout"} {
		if strings.Contains(msg, s) {
			return true
		}
	}

	// Transient network conditions
	for _, s := range []string{"network", "timeout", "econnreset", "socket",
		"connection refused", "connection reset", "no such host", "temporary failure"} {
		if strings.Contains(msg, s) {
			return true
		}
	}

	// Remaining client errors won't succeed on retry
	return false
}
