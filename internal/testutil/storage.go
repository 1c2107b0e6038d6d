package testutil

import (
	"context"
	"errors"
	"sync"

	"clipstack/internal/clip"
	"clipstack/internal/storage"
)

// ErrInjected is the error returned by FailingStorage.
var ErrInjected = errors.New("injected storage failure")

// NewTestStorage creates a new in-memory storage for testing.
func NewTestStorage() *storage.MemoryStorage {
	return storage.NewMemoryStorage()
}

// NewTestHistory creates a HistoryManager over fresh in-memory storage with a
// stub clock and sequential IDs. The storage is returned for direct inspection.
func NewTestHistory() (*clip.HistoryManager, *storage.MemoryStorage, *StubClock) {
	s := NewTestStorage()
	clock := FixedClock()
	h := clip.NewHistoryManager(clip.NewEntryStore(s), clip.NewNopLogger(), clock, NewStubIDGenerator())
	return h, s, clock
}

// FailingStorage wraps a Storage and fails reads or writes on demand.
type FailingStorage struct {
	clip.Storage

	mu       sync.Mutex
	failGet  bool
	failPut  bool
	putCalls int
}

// NewFailingStorage wraps inner. It passes every call through until told to fail.
func NewFailingStorage(inner clip.Storage) *FailingStorage {
	return &FailingStorage{Storage: inner}
}

// FailGets toggles failure of Get.
func (f *FailingStorage) FailGets(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet = fail
}

// FailPuts toggles failure of Put.
func (f *FailingStorage) FailPuts(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPut = fail
}

// PutCalls returns how many times Put was called, failed or not.
func (f *FailingStorage) PutCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putCalls
}

func (f *FailingStorage) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.Storage.Get(ctx, key)
}

func (f *FailingStorage) Put(ctx context.Context, key string, data []byte) error {
	f.mu.Lock()
	f.putCalls++
	fail := f.failPut
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Storage.Put(ctx, key, data)
}

// Compile-time check
var _ clip.Storage = (*FailingStorage)(nil)
