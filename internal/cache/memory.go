package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryBackend keeps entries in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	items map[string]Entry
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend builds an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: map[string]Entry{}}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[key]
	return e, ok, nil
}

func (m *MemoryBackend) Put(_ context.Context, key string, entry Entry, _ time.Duration) error {
	payload := append([]byte(nil), entry.Payload...)
	m.mu.Lock()
	m.items[key] = Entry{Payload: payload, StoredAt: entry.StoredAt}
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Scan(_ context.Context, fn func(string, Entry) error) error {
	m.mu.RLock()
	snapshot := make(map[string]Entry, len(m.items))
	for k, v := range m.items {
		snapshot[k] = v
	}
	m.mu.RUnlock()

	for k, v := range snapshot {
		if err := fn(k, v); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
