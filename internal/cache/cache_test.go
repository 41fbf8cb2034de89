package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PersonIntel/internal/logging"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStore(backend Backend, clock *fakeClock) *Store {
	return New(backend, Options{
		Enabled: true,
		TTL:     time.Hour,
		Clock:   clock.Now,
		Logger:  logging.Discard(),
	})
}

func TestStoreRoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := newStore(NewMemoryBackend(), clock)

	store.Set(ctx, "Alex Example", "news:bing_news", []byte("payload"))

	got, ok := store.Get(ctx, "Alex Example", "news:bing_news")
	require.True(t, ok)
	require.Equal(t, []byte("payload"), got)

	// keys ignore case
	_, ok = store.Get(ctx, "alex example", "NEWS:BING_NEWS")
	require.True(t, ok)

	clock.Advance(time.Hour)
	_, ok = store.Get(ctx, "Alex Example", "news:bing_news")
	require.True(t, ok, "entry exactly ttl old is still fresh")

	clock.Advance(time.Second)
	_, ok = store.Get(ctx, "Alex Example", "news:bing_news")
	require.False(t, ok)
}

func TestStoreOverwrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	store := newStore(NewMemoryBackend(), clock)

	store.Set(ctx, "q", "s", []byte("one"))
	store.Set(ctx, "q", "s", []byte("two"))

	got, ok := store.Get(ctx, "q", "s")
	require.True(t, ok)
	require.Equal(t, "two", string(got))
}

func TestDisabledStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := NewMemoryBackend()
	store := New(backend, Options{Enabled: false, TTL: time.Hour, Logger: logging.Discard()})

	store.Set(ctx, "q", "s", []byte("v"))
	_, ok := store.Get(ctx, "q", "s")
	require.False(t, ok)
	require.Empty(t, backend.items)

	nilStore := New(nil, Options{Enabled: true})
	_, ok = nilStore.Get(ctx, "q", "s")
	require.False(t, ok)
	require.Zero(t, nilStore.EvictExpired(ctx))
}

type brokenBackend struct{ *MemoryBackend }

func (*brokenBackend) Get(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errors.New("disk on fire")
}

func (*brokenBackend) Put(context.Context, string, Entry, time.Duration) error {
	return errors.New("disk on fire")
}

func TestBackendErrorsDegradeToMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(&brokenBackend{MemoryBackend: NewMemoryBackend()}, &fakeClock{now: time.Unix(0, 0)})

	require.NotPanics(t, func() { store.Set(ctx, "q", "s", []byte("v")) })
	_, ok := store.Get(ctx, "q", "s")
	require.False(t, ok)
}

func TestEvictExpiredAndStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_000_000, 0)}
	store := newStore(NewMemoryBackend(), clock)

	store.Set(ctx, "old", "s", []byte("12345"))
	clock.Advance(2 * time.Hour)
	store.Set(ctx, "new", "s", []byte("123"))

	stats := store.Stats(ctx)
	require.Equal(t, "memory", stats.Backend)
	require.Equal(t, 2, stats.Entries)
	require.Equal(t, 1, stats.Expired)
	require.EqualValues(t, 8, stats.TotalBytes)

	require.Equal(t, 1, store.EvictExpired(ctx))
	require.Equal(t, 1, store.Stats(ctx).Entries)
	_, ok := store.Get(ctx, "new", "s")
	require.True(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	t.Parallel()

	type record struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}

	ctx := context.Background()
	store := newStore(NewMemoryBackend(), &fakeClock{now: time.Unix(0, 0)})

	SetJSON(ctx, store, "q", "registry:ofac", []record{{Name: "Alex Example", Score: 0.9}})
	got, ok := GetJSON[[]record](ctx, store, "q", "registry:ofac")
	require.True(t, ok)
	require.Equal(t, []record{{Name: "Alex Example", Score: 0.9}}, got)

	store.Set(ctx, "q", "broken", []byte("{not json"))
	_, ok = GetJSON[[]record](ctx, store, "q", "broken")
	require.False(t, ok)
}

func TestBadgerBackendInMemory(t *testing.T) {
	t.Parallel()

	backend, err := OpenBadger("", nil)
	require.NoError(t, err)

	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	store := newStore(backend, clock)
	t.Cleanup(func() { _ = store.Close() })

	store.Set(ctx, "Alex Example", "registry:ofac", []byte(`[1]`))
	got, ok := store.Get(ctx, "Alex Example", "registry:ofac")
	require.True(t, ok)
	require.Equal(t, `[1]`, string(got))

	clock.Advance(2 * time.Hour)
	require.Equal(t, 1, store.EvictExpired(ctx))
	require.Zero(t, store.Stats(ctx).Entries)
	require.NoError(t, store.Compact())
}

func TestBadgerBackendOnDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	backend, err := OpenBadger(dir, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, backend.Put(ctx, "k", Entry{Payload: []byte("v"), StoredAt: time.Now()}, time.Minute))
	require.NoError(t, backend.Close())

	reopened, err := OpenBadger(dir, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	entry, ok, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", string(entry.Payload))
}

func TestRedisBackend(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	backend, err := OpenRedis(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	store := newStore(backend, &fakeClock{now: time.Now()})
	store.Set(ctx, "redis-test", "news:google_news", []byte("v"))
	got, ok := store.Get(ctx, "redis-test", "news:google_news")
	require.True(t, ok)
	require.Equal(t, "v", string(got))
	require.NoError(t, backend.Delete(ctx, Key("redis-test", "news:google_news")))
}
