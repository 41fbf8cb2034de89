// Package cache stores source responses keyed by (query, source) for a bounded time.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"PersonIntel/internal/metrics"
)

// ErrStop ends a Backend.Scan early without reporting failure.
var ErrStop = errors.New("stop scan")

// Entry is the unit persisted by a Backend.
type Entry struct {
	Payload  []byte    `json:"payload"`
	StoredAt time.Time `json:"stored_at"`
}

// Backend is a durable key/value store. Put must replace an entry atomically.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, entry Entry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Scan(ctx context.Context, fn func(key string, entry Entry) error) error
	Close() error
}

// Options tune a Store.
type Options struct {
	Enabled bool
	TTL     time.Duration
	Clock   func() time.Time
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Store is the TTL cache shared by every source adapter. Backend failures are
// logged and degrade to a miss or a no-op.
type Store struct {
	backend Backend
	enabled bool
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Stats summarises cache contents.
type Stats struct {
	Backend    string        `json:"backend"`
	Enabled    bool          `json:"enabled"`
	TTL        time.Duration `json:"ttl"`
	Entries    int           `json:"entries"`
	Expired    int           `json:"expired"`
	TotalBytes int64         `json:"total_bytes"`
}

// New wraps backend. A nil backend yields a disabled store.
func New(backend Backend, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		backend: backend,
		enabled: opts.Enabled && backend != nil,
		ttl:     opts.TTL,
		now:     opts.Clock,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Key derives the storage key for a query and source pair.
func Key(query, source string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(query + ":" + source)))
	return hex.EncodeToString(sum[:])
}

// Get returns the payload stored for (query, source) unless it is missing or older than the TTL.
func (s *Store) Get(ctx context.Context, query, source string) ([]byte, bool) {
	if !s.enabled {
		return nil, false
	}

	key := Key(query, source)
	entry, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed", "source", source, "error", err)
		s.metrics.IncrementCacheLookup(false)
		return nil, false
	}
	if !ok {
		s.metrics.IncrementCacheLookup(false)
		return nil, false
	}
	if s.expired(entry) {
		if err := s.backend.Delete(ctx, key); err != nil {
			s.logger.Debug("cache delete failed", "source", source, "error", err)
		}
		s.metrics.IncrementCacheLookup(false)
		return nil, false
	}

	s.metrics.IncrementCacheLookup(true)
	return entry.Payload, true
}

// Set overwrites the entry for (query, source).
func (s *Store) Set(ctx context.Context, query, source string, payload []byte) {
	if !s.enabled {
		return
	}
	entry := Entry{Payload: payload, StoredAt: s.now()}
	if err := s.backend.Put(ctx, Key(query, source), entry, s.ttl); err != nil {
		s.logger.Warn("cache write failed", "source", source, "error", err)
	}
}

// EvictExpired removes stale entries and reports how many were dropped.
func (s *Store) EvictExpired(ctx context.Context) int {
	if s.backend == nil {
		return 0
	}

	var stale []string
	err := s.backend.Scan(ctx, func(key string, entry Entry) error {
		if s.expired(entry) {
			stale = append(stale, key)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("cache scan failed", "error", err)
	}

	removed := 0
	for _, key := range stale {
		if err := s.backend.Delete(ctx, key); err != nil {
			s.logger.Warn("cache evict failed", "key", key, "error", err)
			continue
		}
		removed++
	}
	return removed
}

// Stats walks the backend and counts entries.
func (s *Store) Stats(ctx context.Context) Stats {
	stats := Stats{Enabled: s.enabled, TTL: s.ttl}
	if s.backend == nil {
		return stats
	}
	stats.Backend = s.backend.Name()

	err := s.backend.Scan(ctx, func(_ string, entry Entry) error {
		stats.Entries++
		stats.TotalBytes += int64(len(entry.Payload))
		if s.expired(entry) {
			stats.Expired++
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("cache scan failed", "error", err)
	}
	return stats
}

// Compact asks backends that support it to reclaim space.
func (s *Store) Compact() error {
	if c, ok := s.backend.(interface{ Compact() error }); ok {
		return c.Compact()
	}
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

func (s *Store) expired(entry Entry) bool {
	return s.now().Sub(entry.StoredAt) > s.ttl
}

// GetJSON decodes a cached payload into T. Undecodable payloads count as a miss.
func GetJSON[T any](ctx context.Context, s *Store, query, source string) (T, bool) {
	var zero T
	raw, ok := s.Get(ctx, query, source)
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.logger.Warn("cache payload corrupt", "source", source, "error", err)
		return zero, false
	}
	return v, true
}

// SetJSON encodes v and stores it.
func SetJSON(ctx context.Context, s *Store, query, source string, v any) {
	if !s.enabled {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("cache payload encode failed", "source", source, "error", err)
		return
	}
	s.Set(ctx, query, source, raw)
}
