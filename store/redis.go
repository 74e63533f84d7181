package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKVConfig configures the Redis-backed KV store.
type RedisKVConfig struct {
	// Addr is the Redis server address.
	// Default: localhost:6379
	Addr string

	// Password is the Redis password, if any.
	Password string

	// DB is the Redis database number.
	DB int

	// DialTimeout bounds connection establishment.
	// Default: 5s
	DialTimeout time.Duration

	// ScanCount is the COUNT hint for SCAN during prefix listing.
	// Default: 100
	ScanCount int64
}

// RedisKV is a KV implementation backed by Redis. Prefix listing uses
// SCAN with a MATCH pattern so it never blocks the server the way KEYS
// would.
type RedisKV struct {
	client    redis.UniversalClient
	scanCount int64
}

// NewRedisKV creates a Redis-backed KV store with its own client.
func NewRedisKV(config RedisKVConfig) *RedisKV {
	// Apply defaults
	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.ScanCount <= 0 {
		config.ScanCount = 100
	}

	client := redis.NewClient(&redis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})

	return &RedisKV{client: client, scanCount: config.ScanCount}
}

// NewRedisKVFromClient wraps an existing Redis client.
func NewRedisKVFromClient(client redis.UniversalClient) *RedisKV {
	return &RedisKV{client: client, scanCount: 100}
}

// Get retrieves a value. Returns (nil, false, nil) on miss.
func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, true, nil
}

// Set stores a value without expiry; entries carry their own TTL.
func (s *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes a value. Idempotent.
func (s *RedisKV) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Keys lists all keys starting with prefix via cursor SCAN.
func (s *RedisKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", s.scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return keys, nil
}

// Close releases the underlying client.
func (s *RedisKV) Close() error {
	return s.client.Close()
}

// Ensure RedisKV implements KV
var _ KV = (*RedisKV)(nil)
