package cache

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory implements Store with process-local storage. Entries are
// evicted lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates a new in-process cache store
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the cached value or ErrMiss when absent or expired
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, goerr.New("cache key is empty")
	}

	m.mu.RLock()
	entry, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		return nil, goerr.Wrap(ErrMiss, "key not cached", goerr.V("key", key))
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, goerr.Wrap(ErrMiss, "key expired", goerr.V("key", key))
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// Set stores a value with the given TTL
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return goerr.New("cache key is empty")
	}
	if ttl <= 0 {
		return goerr.New("cache TTL must be positive", goerr.V("ttl", ttl))
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		value:     stored,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Close is a no-op for the memory store
func (m *Memory) Close() error {
	return nil
}

var _ Store = (*Memory)(nil) // Compile-time interface check
