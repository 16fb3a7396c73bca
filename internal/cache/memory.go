package cache

import (
	"context"
	"sync"
	"time"
)

// entry is a cached value with its expiry deadline.
type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryCache is the in-process Cache implementation. It backs the
// transaction-history cache when no Redis is configured, which is the
// normal setup for a single game server. A background goroutine evicts
// expired entries so a quiet server does not accumulate dead keys.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*entry

	stopCleanup chan struct{}
}

// cleanupInterval is how often expired entries are swept out.
const cleanupInterval = time.Minute

// NewMemoryCache creates an in-memory cache and starts its eviction loop.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		entries:     make(map[string]*entry),
		stopCleanup: make(chan struct{}),
	}

	go c.cleanupLoop()

	return c
}

// Get retrieves a value by key. Expired entries count as misses even if
// the eviction loop has not removed them yet.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.expired(time.Now()) {
		return nil, ErrCacheMiss
	}

	// Copy so callers cannot mutate the cached bytes.
	result := make([]byte, len(e.value))
	copy(result, e.value)
	return result, nil
}

// Set stores a copy of value under key with the given TTL.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{
		value:     stored,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a value by key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Exists checks if a key is present and not expired.
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return ok && !e.expired(time.Now()), nil
}

// GetOrSet returns the cached value or computes and caches it on a miss.
// Concurrent misses may each run fn; the last write wins, which is fine
// for the history queries this fronts.
func (c *MemoryCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fn func() ([]byte, error)) ([]byte, error) {
	if value, err := c.Get(ctx, key); err == nil {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		return nil, err
	}

	return value, nil
}

// Clear drops every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	return nil
}

// Close stops the eviction goroutine.
func (c *MemoryCache) Close() error {
	close(c.stopCleanup)
	return nil
}

func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *MemoryCache) evictExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}
