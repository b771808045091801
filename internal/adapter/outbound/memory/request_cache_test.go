package memory

import (
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRequestCache_HitWithinTTL(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := NewRequestCacheWithClock(50, clock.Now)
	c.Set("/posts_{}", "data")

	clock.Advance(4*time.Minute + 59*time.Second)
	got, ok := c.Get("/posts_{}", 5*time.Minute)
	if !ok || got != "data" {
		t.Errorf("Get() = %v, %v, want data, true", got, ok)
	}
}

func TestRequestCache_ExpiredIsDeleted(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := NewRequestCacheWithClock(50, clock.Now)
	c.Set("/posts_{}", "data")

	// Exactly at the TTL the entry is stale.
	clock.Advance(5 * time.Minute)
	if _, ok := c.Get("/posts_{}", 5*time.Minute); ok {
		t.Error("Get() hit at age == TTL, want miss")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, stale entry should be removed", c.Len())
	}
}

func TestRequestCache_PerCallTTL(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := NewRequestCacheWithClock(50, clock.Now)
	c.Set("k", 1)
	clock.Advance(30 * time.Second)

	if _, ok := c.Get("k", time.Minute); !ok {
		t.Error("Get(k, 1m) should hit a 30s old entry")
	}
	if _, ok := c.Get("k", 10*time.Second); ok {
		t.Error("Get(k, 10s) should miss a 30s old entry")
	}
}

func TestRequestCache_NonPositiveTTLNeverHits(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := NewRequestCacheWithClock(50, clock.Now)

	c.Set("k", 1)
	if _, ok := c.Get("k", 0); ok {
		t.Error("Get(k, 0) should miss")
	}
	c.Set("k", 1)
	if _, ok := c.Get("k", -time.Second); ok {
		t.Error("Get(k, -1s) should miss")
	}
}

func TestRequestCache_FIFOEviction(t *testing.T) {
	t.Parallel()

	c := NewRequestCache(50)
	evicted := 0
	for i := range 51 {
		evicted += c.Set(fmt.Sprintf("k%d", i), i)
	}

	if evicted != 1 {
		t.Errorf("evicted = %d, want 1", evicted)
	}
	if c.Len() != 50 {
		t.Errorf("Len() = %d, want 50", c.Len())
	}
	if _, ok := c.Get("k0", time.Hour); ok {
		t.Error("k0 should have been evicted first")
	}
	if _, ok := c.Get("k1", time.Hour); !ok {
		t.Error("k1 should still be cached")
	}
	if _, ok := c.Get("k50", time.Hour); !ok {
		t.Error("k50 should be cached")
	}
}

func TestRequestCache_ReadsDoNotRefreshPosition(t *testing.T) {
	t.Parallel()

	c := NewRequestCache(2)
	c.Set("a", 1)
	c.Set("b", 2)

	// Reading a would move it to the back in an LRU; FIFO ignores reads.
	c.Get("a", time.Hour)
	c.Set("c", 3)

	if _, ok := c.Get("a", time.Hour); ok {
		t.Error("a should be evicted even though it was read last")
	}
	if got := c.Keys(); !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("Keys() = %v, want [b c]", got)
	}
}

func TestRequestCache_OverwriteKeepsPosition(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := NewRequestCacheWithClock(2, clock.Now)
	c.Set("a", 1)
	c.Set("b", 2)

	clock.Advance(time.Minute)
	if evicted := c.Set("a", 10); evicted != 0 {
		t.Errorf("overwrite evicted %d, want 0", evicted)
	}
	if got := c.Keys(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v, want [a b]", got)
	}

	// Overwrite refreshed the timestamp.
	clock.Advance(90 * time.Second)
	if got, ok := c.Get("a", 2*time.Minute); !ok || got != 10 {
		t.Errorf("Get(a) = %v, %v, want 10, true", got, ok)
	}

	c.Set("c", 3)
	if _, ok := c.Get("a", time.Hour); ok {
		t.Error("a is still the oldest insertion and should be evicted")
	}
}

func TestRequestCache_DeleteAndClear(t *testing.T) {
	t.Parallel()

	c := NewRequestCache(10)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	c.Delete("missing")

	if got := c.Keys(); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Keys() = %v, want [b]", got)
	}

	c.Clear()
	if c.Len() != 0 || len(c.Keys()) != 0 {
		t.Error("Clear() should remove everything")
	}
}

func TestRequestCache_DefaultBound(t *testing.T) {
	t.Parallel()

	c := NewRequestCache(0)
	if c.maxEntries != DefaultMaxEntries {
		t.Errorf("maxEntries = %d, want %d", c.maxEntries, DefaultMaxEntries)
	}
}

func TestRequestCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := NewRequestCache(50)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := fmt.Sprintf("g%d-%d", g, i%60)
				c.Set(key, i)
				c.Get(key, time.Minute)
			}
		}()
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len() = %d, bound of 50 violated", c.Len())
	}
	if len(c.Keys()) != c.Len() {
		t.Errorf("order list (%d) out of sync with entries (%d)", len(c.Keys()), c.Len())
	}
}
