package cart

import (
	"context"
	"sync"
)

// Persister is the durable key/value slot behind a Store. Load reports
// found=false for an absent key; that is not an error.
type Persister interface {
	Load(ctx context.Context, key string) (payload string, found bool, err error)
	Save(ctx context.Context, key string, payload string) error
	Delete(ctx context.Context, key string) error
}

// MemoryPersister keeps snapshots in process memory. It backs the "memory"
// cart backend and the tests.
type MemoryPersister struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{data: make(map[string]string)}
}

func (m *MemoryPersister) Load(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryPersister) Save(_ context.Context, key string, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = payload
	return nil
}

func (m *MemoryPersister) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Has reports whether key currently holds a snapshot.
func (m *MemoryPersister) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}
