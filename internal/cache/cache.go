// Package cache holds process-lifetime lookup tables shared between
// concurrent searches.
//
// Keys are compared byte for byte: no case folding, trimming or Unicode
// normalisation is applied. Entries never expire and there is no eviction,
// so the table grows with the number of distinct keys seen by the process.
package cache

import (
	"sync"
	"sync/atomic"
)

// Cache is a concurrency-safe key/value table with insert-if-absent writes.
type Cache[V any] struct {
	mu   sync.RWMutex
	data map[string]V

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats summarises cache usage.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// New returns an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{data: make(map[string]V)}
}

// Get returns the value stored under key.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	v, ok := c.data[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Put stores value under key unless an entry already exists. It returns the
// value that is in the cache after the call and whether this call inserted it.
func (c *Cache[V]) Put(key string, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.data[key]; ok {
		return existing, false
	}
	c.data[key] = value
	return value, true
}

// Len returns the number of entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Stats returns a point-in-time view of the counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Entries: c.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
