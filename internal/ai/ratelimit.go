package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// IntervalLimiter spaces outbound provider calls so that no two permitted
// calls complete closer together than the derived minimum interval. It is a
// single-process approximation of the provider's per-minute quota; multiple
// processes sharing one external quota need coordination this does not give.
//
// State is per instance. Construct one limiter per provider quota and pass
// it explicitly to every consumer that shares that quota.
type IntervalLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewIntervalLimiter creates a limiter permitting callsPerMinute calls,
// enforced as a minimum inter-call interval of 60s/callsPerMinute.
// callsPerMinute values below 1 are treated as 1.
func NewIntervalLimiter(callsPerMinute int) *IntervalLimiter {
	if callsPerMinute < 1 {
		callsPerMinute = 1
	}
	interval := time.Minute / time.Duration(callsPerMinute)
	// Burst of 1 means each permit waits out the full interval since the
	// previous one; the first call proceeds immediately.
	return &IntervalLimiter{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Wait suspends the caller until the minimum interval since the previous
// permitted call has elapsed, or ctx is canceled.
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Interval returns the enforced minimum spacing between calls.
func (l *IntervalLimiter) Interval() time.Duration {
	return l.interval
}
