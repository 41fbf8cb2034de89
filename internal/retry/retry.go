// Package retry re-runs fallible operations with exponential backoff.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"PersonIntel/internal/domain"
)

// Policy shapes the backoff schedule. The wait after the n-th failed attempt is
// min(MaxBackoff, InitialBackoff * Factor^(n-1)) with no jitter.
type Policy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Factor         float64

	// NewTimer overrides the wait between attempts; tests use it to skip real sleeps.
	NewTimer func() backoff.Timer
	// Notify is called after each failed attempt that will be retried.
	Notify func(attempt int, err error, next time.Duration)
}

// FromSeconds builds a policy from second-based settings.
func FromSeconds(maxRetries int, initial, maxBackoff, factor float64) Policy {
	return Policy{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Duration(initial * float64(time.Second)),
		MaxBackoff:     time.Duration(maxBackoff * float64(time.Second)),
		Factor:         factor,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.InitialBackoff) * math.Pow(p.Factor, float64(attempt-1))
	if d > float64(p.MaxBackoff) {
		return p.MaxBackoff
	}
	return time.Duration(d)
}

// ExhaustedError is returned once every attempt has failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }
func (e *ExhaustedError) Kind() string  { return domain.KindRetryExhausted }

// Do runs op at most MaxRetries+1 times. Every error is retried the same way.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		result   T
		attempts int
		lastErr  error
	)

	operation := func() error {
		attempts++
		v, err := op(ctx)
		if err != nil {
			lastErr = err
			return err
		}
		result = v
		return nil
	}

	notify := func(err error, next time.Duration) {
		if p.Notify != nil {
			p.Notify(attempts, err, next)
		}
	}

	var timer backoff.Timer
	if p.NewTimer != nil {
		timer = p.NewTimer()
	}

	err := backoff.RetryNotifyWithTimer(operation, p.schedule(ctx), notify, timer)
	if err == nil {
		return result, nil
	}

	var zero T
	if ctxErr := ctx.Err(); ctxErr != nil {
		if lastErr == nil {
			return zero, ctxErr
		}
		return zero, fmt.Errorf("retry aborted after %d attempts (last error: %v): %w", attempts, lastErr, ctxErr)
	}
	return zero, &ExhaustedError{Attempts: attempts, Last: lastErr}
}

func (p Policy) schedule(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialBackoff
	exp.MaxInterval = p.MaxBackoff
	exp.Multiplier = max(p.Factor, 1)
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(p.MaxRetries, 0))), ctx)
}
