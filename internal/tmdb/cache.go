package tmdb

import (
	"sync"
	"time"
)

type cacheEntry[T any] struct {
	value   T
	expires time.Time
}

// cache is an in-process TTL cache for detail lookups. It sits in front of
// the persistent cache so repeated lookups within one run skip decoding.
type cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[T]
	ttl     time.Duration
}

func newCache[T any](ttl time.Duration) *cache[T] {
	return &cache[T]{
		entries: make(map[string]cacheEntry[T]),
		ttl:     ttl,
	}
}

func (c *cache[T]) get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	entry, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if time.Now().After(entry.expires) {
		return zero, false
	}
	return entry.value, true
}

func (c *cache[T]) set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry[T]{
		value:   value,
		expires: time.Now().Add(c.ttl),
	}
}
