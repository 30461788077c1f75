package agent

import (
	"context"
	"sync"
	"time"
)

type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
}

type memoryEntry[S any] struct {
	val       S
	expiresAt time.Time
}

// MemoryCache keeps values in process. Entries untouched for longer than
// ttl are evicted lazily; a zero ttl keeps them forever.
type MemoryCache[S any] struct {
	mu  sync.RWMutex
	m   map[string]memoryEntry[S]
	ttl time.Duration
	now func() time.Time
}

func NewMemoryCache[S any](ttl time.Duration) *MemoryCache[S] {
	return &MemoryCache[S]{
		m:   map[string]memoryEntry[S]{},
		ttl: ttl,
		now: time.Now,
	}
}

func (m *MemoryCache[S]) expired(e memoryEntry[S]) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	entry := memoryEntry[S]{val: val}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.m[key] = entry
	m.evictLocked()
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	m.mu.RLock()
	entry, ok := m.m[key]
	m.mu.RUnlock()
	if !ok || m.expired(entry) {
		var zero S
		return zero, false, nil
	}
	return entry.val, true, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) evictLocked() {
	if m.ttl <= 0 {
		return
	}
	for key, entry := range m.m {
		if m.expired(entry) {
			delete(m.m, key)
		}
	}
}
