package store

import (
	"context"
	"errors"
)

// Sentinel errors for storage operations.
var (
	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("store: backend unavailable")

	// ErrClosed is returned after Close has been called.
	ErrClosed = errors.New("store: backend closed")
)

// KV is a small-value key-value store with native prefix listing.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get returns (nil, false, nil) on miss; errors indicate the
//   backend itself failed, never that a key is absent.
type KV interface {
	// Get retrieves a value. Returns (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value, overwriting any existing one.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Keys lists all keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a large-object store without native prefix queries; callers
// discover keys by cursor iteration via Scan.
type Blob interface {
	// Get retrieves an object. Returns (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores an object, overwriting any existing one.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes an object. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Scan iterates over all keys in unspecified order, calling fn for
	// each. Iteration stops early when fn returns false.
	Scan(ctx context.Context, fn func(key string) bool) error
}
