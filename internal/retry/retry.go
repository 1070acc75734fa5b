// Package retry provides the fixed-ceiling retry policy shared by the content
// service and the embedding pipeline.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes a bounded retry loop. The zero value is not usable; use
// Default() or fill every field.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Delay returns the wait before the next attempt, given the attempt
	// number (1-based) that just failed.
	Delay func(attempt int) time.Duration
	// Retryable reports whether the error is worth another attempt. A nil
	// predicate retries every error.
	Retryable func(err error) bool
	// Sleep is overridable for tests; defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default is the policy used throughout: 3 attempts with a linear
// 1s-per-attempt delay (1s after the first failure, 2s after the second).
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		Delay:       LinearDelay(time.Second),
	}
}

// LinearDelay returns a delay function of unit × attempt.
func LinearDelay(unit time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return unit * time.Duration(attempt)
	}
}

// Do runs fn until it succeeds, the attempt budget is exhausted, or the
// context is canceled. The returned error is the last attempt's error,
// wrapped with the attempt count.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}
		if p.Delay != nil {
			if err := sleep(ctx, p.Delay(attempt)); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("retried %d times: %w", p.MaxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
