package cache

import (
	"context"
	"time"
)

// Cache is the read-cache used in front of the transaction history
// queries. Implementations are MemoryCache for single-instance and test
// setups and RedisCache when several game servers share one backend.
// Values are opaque byte slices; callers own the serialization.
type Cache interface {
	// Get retrieves a value by key. Returns ErrCacheMiss if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// GetOrSet returns the cached value, or runs fn and caches its
	// result on a miss. Recent-trade listings go through this path.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, fn func() ([]byte, error)) ([]byte, error)

	// Clear removes all entries from the cache.
	Clear(ctx context.Context) error
}

// CacheError is a sentinel error type for cache conditions.
type CacheError string

func (e CacheError) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss CacheError = "cache miss"
)
