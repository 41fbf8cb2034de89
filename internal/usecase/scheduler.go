package usecase

import (
	"context"
	"log/slog"
	"time"

	"PersonIntel/internal/cache"
	"PersonIntel/internal/ports"
)

// CacheMaintenance periodically drops expired cache entries and compacts the
// backend while the service runs.
type CacheMaintenance struct {
	driver ports.Scheduler
	store  *cache.Store
	logger *slog.Logger
}

// NewCacheMaintenance binds the sweep to a scheduler driver.
func NewCacheMaintenance(driver ports.Scheduler, store *cache.Store, logger *slog.Logger) *CacheMaintenance {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheMaintenance{driver: driver, store: store, logger: logger.With("component", "cache-maintenance")}
}

// Sweep evicts expired entries once and returns how many were removed.
func (m *CacheMaintenance) Sweep(ctx context.Context, trigger time.Time) int {
	removed := m.store.EvictExpired(ctx)
	if err := m.store.Compact(); err != nil {
		m.logger.Warn("cache compaction failed", "error", err)
	}
	m.logger.Info("cache swept", "removed", removed, "trigger", trigger.Format(time.RFC3339))
	return removed
}

// Start registers the sweep with the scheduler.
func (m *CacheMaintenance) Start(ctx context.Context) error {
	if m.driver == nil || m.store == nil {
		return nil
	}
	return m.driver.Start(ctx, func(trigger time.Time) {
		m.Sweep(ctx, trigger)
	})
}

// Stop tears down the underlying scheduler.
func (m *CacheMaintenance) Stop(ctx context.Context) error {
	if m.driver == nil {
		return nil
	}
	return m.driver.Stop(ctx)
}
