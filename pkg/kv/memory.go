package kv

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and local development. Remote
// changes can be simulated with Inject.
type Memory struct {
	mu       sync.Mutex
	values   map[string]memoryEntry
	watchers []func(key string)
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: map[string]memoryEntry{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(m.values, key)
		return "", ErrNotFound
	}
	return entry.value, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = newEntry(value, ttl)
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *Memory) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.values[key]; ok {
		if entry.expiresAt.IsZero() || time.Now().Before(entry.expiresAt) {
			return false, nil
		}
	}
	m.values[key] = newEntry(value, ttl)
	return true, nil
}

// Watch registers fn for injected remote changes. The context is ignored;
// registration lasts for the store's lifetime.
func (m *Memory) Watch(_ context.Context, fn func(key string)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, fn)
	return nil
}

// Inject simulates a write from another execution context: it stores the
// value and fires every registered watcher synchronously.
func (m *Memory) Inject(key, value string) {
	m.mu.Lock()
	m.values[key] = newEntry(value, 0)
	watchers := append([]func(string){}, m.watchers...)
	m.mu.Unlock()

	for _, fn := range watchers {
		fn(key)
	}
}

func newEntry(value string, ttl time.Duration) memoryEntry {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	return entry
}
