package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIntervalSchedulerRunsUntilStopped(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewIntervalScheduler(5*time.Millisecond, true)
	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(1) }))
	require.NoError(t, s.Start(context.Background(), func(time.Time) { t.Error("second start must not register a job") }))

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, after, runs.Load())
	require.NoError(t, s.Stop(context.Background()))
}

func TestIntervalSchedulerStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	s := NewIntervalScheduler(time.Hour, true)
	require.NoError(t, s.Start(ctx, func(time.Time) { runs.Add(1) }))
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, s.Stop(context.Background()))
}

func TestIntervalSchedulerRejectsZeroPeriod(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(0, false)
	require.Error(t, s.Start(context.Background(), func(time.Time) {}))
	require.NoError(t, s.Start(context.Background(), nil))
}
