package clip

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Storage.Get when no value has been stored for a key.
var ErrNotFound = errors.New("key not found")

// Storage is a durable key/value backend. Each key holds one opaque value and
// every Put replaces the previous value in full: last write wins, and Get
// returns exactly what the last successful Put stored.
//
// Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// ValidateSetup verifies that the backend is reachable and writable.
	ValidateSetup(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close() error
}
