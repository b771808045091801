// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/brotherhood-social/brotherhood/internal/port/outbound"
)

// DefaultMaxEntries bounds the request cache.
const DefaultMaxEntries = 50

// Compile-time check that RequestCache implements outbound.RequestCache.
var _ outbound.RequestCache = (*RequestCache)(nil)

// requestCacheEntry is one cached response body.
type requestCacheEntry struct {
	data      any
	timestamp time.Time
}

// RequestCache implements outbound.RequestCache with a map plus an
// insertion-order list. Thread-safe for concurrent access.
//
// Eviction is first-in-first-out: reading an entry does not refresh its
// position, and overwriting a key keeps the position it was first inserted at.
// Concurrent misses on the same key are not coalesced.
type RequestCache struct {
	mu         sync.Mutex
	entries    map[string]*requestCacheEntry
	order      []string // oldest first
	maxEntries int
	now        func() time.Time
}

// NewRequestCache creates a cache holding at most maxEntries entries.
// maxEntries <= 0 uses DefaultMaxEntries.
func NewRequestCache(maxEntries int) *RequestCache {
	return NewRequestCacheWithClock(maxEntries, time.Now)
}

// NewRequestCacheWithClock creates a cache reading time from now.
func NewRequestCacheWithClock(maxEntries int, now func() time.Time) *RequestCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &RequestCache{
		entries:    make(map[string]*requestCacheEntry),
		maxEntries: maxEntries,
		now:        now,
	}
}

// Get returns the data stored under key if now - timestamp < maxAge.
func (c *RequestCache) Get(key string, maxAge time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.timestamp) < maxAge {
		return entry.data, true
	}

	// Stale: remove it so it stops counting against the bound.
	c.deleteLocked(key)
	return nil, false
}

// Set stores data under key and prunes the oldest entries beyond the bound.
func (c *RequestCache) Set(key string, data any) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.data = data
		entry.timestamp = c.now()
		return 0
	}

	c.entries[key] = &requestCacheEntry{data: data, timestamp: c.now()}
	c.order = append(c.order, key)
	return c.pruneLocked()
}

// Delete removes key if present.
func (c *RequestCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(key)
}

// Clear removes every entry.
func (c *RequestCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*requestCacheEntry)
	c.order = nil
}

// Len returns the number of stored entries.
func (c *RequestCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the stored keys, oldest first.
func (c *RequestCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.order)
}

// pruneLocked drops the oldest entries until the bound holds.
func (c *RequestCache) pruneLocked() int {
	overflow := len(c.order) - c.maxEntries
	if overflow <= 0 {
		return 0
	}
	for _, key := range c.order[:overflow] {
		delete(c.entries, key)
	}
	c.order = slices.Clone(c.order[overflow:])
	return overflow
}

func (c *RequestCache) deleteLocked(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	if i := slices.Index(c.order, key); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
}
