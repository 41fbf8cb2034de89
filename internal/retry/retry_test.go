package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"PersonIntel/internal/domain"
)

type instantTimer struct {
	ch    chan time.Time
	waits *[]time.Duration
}

func (t *instantTimer) Start(d time.Duration) {
	*t.waits = append(*t.waits, d)
	t.ch <- time.Now()
}

func (t *instantTimer) Stop()               {}
func (t *instantTimer) C() <-chan time.Time { return t.ch }

func testPolicy(waits *[]time.Duration) Policy {
	p := FromSeconds(3, 1, 60, 2)
	p.NewTimer = func() backoff.Timer {
		return &instantTimer{ch: make(chan time.Time, 1), waits: waits}
	}
	return p
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	for k := 0; k <= 3; k++ {
		var waits []time.Duration
		calls := 0
		got, err := Do(context.Background(), testPolicy(&waits), func(context.Context) (string, error) {
			calls++
			if calls <= k {
				return "", errors.New("flaky")
			}
			return "ok", nil
		})

		require.NoError(t, err)
		require.Equal(t, "ok", got)
		require.Equal(t, k+1, calls)
		require.Len(t, waits, k)
	}
}

func TestDoExhausts(t *testing.T) {
	t.Parallel()

	var waits []time.Duration
	calls := 0
	boom := &domain.FetchError{URL: "http://registry", StatusCode: 503}

	_, err := Do(context.Background(), testPolicy(&waits), func(context.Context) (int, error) {
		calls++
		return 0, boom
	})

	require.Equal(t, 4, calls)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 4, exhausted.Attempts)
	require.ErrorIs(t, err, boom)
	require.Equal(t, domain.KindRetryExhausted, domain.Classify(err))
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, waits)
}

func TestDoWithoutRetries(t *testing.T) {
	t.Parallel()

	var waits []time.Duration
	p := testPolicy(&waits)
	p.MaxRetries = 0
	calls := 0

	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("nope")
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.Empty(t, waits)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p := FromSeconds(5, 10, 60, 2)
	calls := 0

	_, err := Do(ctx, p, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("down")
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestDelay(t *testing.T) {
	t.Parallel()

	p := FromSeconds(10, 1, 60, 2)
	require.Equal(t, time.Second, p.Delay(1))
	require.Equal(t, 2*time.Second, p.Delay(2))
	require.Equal(t, 32*time.Second, p.Delay(6))
	require.Equal(t, 60*time.Second, p.Delay(7))
	require.Equal(t, time.Second, p.Delay(0))
}

func TestNotifyReportsAttempts(t *testing.T) {
	t.Parallel()

	var waits []time.Duration
	p := testPolicy(&waits)
	var attempts []int
	p.Notify = func(attempt int, _ error, _ time.Duration) {
		attempts = append(attempts, attempt)
	}

	_, _ = Do(context.Background(), p, func(context.Context) (int, error) {
		return 0, errors.New("x")
	})
	require.Equal(t, []int{1, 2, 3}, attempts)
}
