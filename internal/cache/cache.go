// Package cache is a concurrent keyed table whose entries are built on first
// use and kept until the table is dropped.
package cache

import "sync"

// Cache is safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu    sync.Mutex
	items map[K]V
}

// New returns an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{items: make(map[K]V)}
}

// GetOrSet returns the value for key, storing create() first when the key
// is missing. Concurrent callers for one key share one value.
func (c *Cache[K, V]) GetOrSet(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.items[key]; ok {
		return v
	}
	v := create()
	c.items[key] = v
	return v
}
