package storage

import (
	"bytes"
	"context"
	"sync"

	"clipstack/internal/clip"
)

// MemoryStorage is an in-memory implementation of clip.Storage.
// Nothing survives the process, which makes it useful for tests and
// throwaway sessions. It is safe for concurrent use.
type MemoryStorage struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[key]
	if !ok {
		return nil, clip.ErrNotFound
	}
	return bytes.Clone(data), nil
}

// Put stores a copy of data under key.
func (m *MemoryStorage) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = bytes.Clone(data)
	return nil
}

// ValidateSetup always succeeds for in-memory storage.
func (m *MemoryStorage) ValidateSetup(context.Context) error {
	return nil
}

// Close is a no-op.
func (m *MemoryStorage) Close() error {
	return nil
}

// Compile-time check that MemoryStorage implements clip.Storage
var _ clip.Storage = (*MemoryStorage)(nil)
