package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PersonIntel/internal/cache"
	"PersonIntel/internal/logging"
)

type manualScheduler struct {
	job     func(time.Time)
	stopped bool
}

func (s *manualScheduler) Start(_ context.Context, job func(time.Time)) error {
	s.job = job
	return nil
}

func (s *manualScheduler) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func TestCacheMaintenanceSweepsOnTrigger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Unix(2_000_000, 0)
	store := cache.New(cache.NewMemoryBackend(), cache.Options{
		Enabled: true,
		TTL:     time.Hour,
		Clock:   func() time.Time { return now },
		Logger:  logging.Discard(),
	})
	store.Set(ctx, "alex example", "news:bing", []byte("[]"))
	now = now.Add(2 * time.Hour)
	store.Set(ctx, "alex example", "registry:ofac", []byte("[]"))

	driver := &manualScheduler{}
	m := NewCacheMaintenance(driver, store, logging.Discard())
	require.NoError(t, m.Start(ctx))
	require.NotNil(t, driver.job)

	driver.job(now)
	stats := store.Stats(ctx)
	require.Equal(t, 1, stats.Entries)
	require.Zero(t, stats.Expired)

	require.NoError(t, m.Stop(ctx))
	require.True(t, driver.stopped)
}

func TestCacheMaintenanceWithoutDriver(t *testing.T) {
	t.Parallel()

	m := NewCacheMaintenance(nil, nil, nil)
	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))
}
