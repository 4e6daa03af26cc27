package session

import (
	"context"
	"sync"
	"time"
)

// Storage is a small key/value store holding session records. It plays the
// role of a browser tab's session storage: one record per key, no history.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Expirer is implemented by storages that can drop stale records
type Expirer interface {
	// DeleteBefore removes records last written before t and returns how many were removed
	DeleteBefore(ctx context.Context, t time.Time) (int, error)
}

type memoryEntry struct {
	value     []byte
	updatedAt time.Time
}

// MemoryStorage keeps records in process memory
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the value stored under key
func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	// Copy so callers cannot mutate the stored slice
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set stores value under key, replacing any previous value
func (m *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.entries[key] = memoryEntry{value: stored, updatedAt: m.now()}
	m.mu.Unlock()
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// DeleteBefore removes records last written before t
func (m *MemoryStorage) DeleteBefore(_ context.Context, t time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if e.updatedAt.Before(t) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored records
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// scoped prefixes every key with a scope so several clients can share one backend
type scoped struct {
	backend Storage
	prefix  string
}

// Scoped returns a view of backend whose keys are isolated under scope
func Scoped(backend Storage, scope string) Storage {
	return &scoped{backend: backend, prefix: scope + "/"}
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.backend.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.backend.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, s.prefix+key)
}
