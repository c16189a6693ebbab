package storage

import "sync"

// MemoryStore is a map-backed Store for tests and throwaway runs. It has
// no cross-context channel of its own; SimulateExternalChange lets tests
// stand in for another process writing the shared store.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers []func(key string)
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Watch registers a callback for external changes. Own writes never fire
// it, matching the file store's semantics.
func (m *MemoryStore) Watch(fn func(key string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, fn)
}

// SimulateExternalChange writes a value as if another context had done it
// and notifies watchers.
func (m *MemoryStore) SimulateExternalChange(key, value string) {
	m.mu.Lock()
	m.values[key] = value
	watchers := make([]func(string), len(m.watchers))
	copy(watchers, m.watchers)
	m.mu.Unlock()

	for _, fn := range watchers {
		fn(key)
	}
}
