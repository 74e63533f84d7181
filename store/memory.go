package store

import (
	"context"
	"strings"
	"sync"
)

// MemoryKV is an in-memory KV implementation used as the fallback when
// no durable backend is configured.
type MemoryKV struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemoryKV creates an empty in-memory KV store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: make(map[string][]byte)}
}

// Get retrieves a value. Returns (nil, false, nil) on miss.
func (s *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	// Copy so callers cannot mutate stored bytes.
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores a value.
func (s *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	s.m[key] = stored
	s.mu.Unlock()
	return nil
}

// Delete removes a value. Idempotent.
func (s *MemoryKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

// Keys lists all keys starting with prefix.
func (s *MemoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// MemoryBlob is an in-memory Blob implementation used as the fallback
// when no durable large-object backend is configured.
type MemoryBlob struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemoryBlob creates an empty in-memory blob store.
func NewMemoryBlob() *MemoryBlob {
	return &MemoryBlob{m: make(map[string][]byte)}
}

// Get retrieves an object. Returns (nil, false, nil) on miss.
func (s *MemoryBlob) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores an object.
func (s *MemoryBlob) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	s.m[key] = stored
	s.mu.Unlock()
	return nil
}

// Delete removes an object. Idempotent.
func (s *MemoryBlob) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

// Scan iterates over all keys.
func (s *MemoryBlob) Scan(_ context.Context, fn func(key string) bool) error {
	s.mu.RLock()
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	for _, k := range keys {
		if !fn(k) {
			return nil
		}
	}
	return nil
}

// Ensure the memory stores implement their interfaces
var (
	_ KV   = (*MemoryKV)(nil)
	_ Blob = (*MemoryBlob)(nil)
)
