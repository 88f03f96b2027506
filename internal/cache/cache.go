package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/snowlineapp/snowline/internal/metrics"
)

// Cache is a process-wide key-value store with per-entry time-to-live,
// holding opaque serialized responses keyed by request parameters. Expired
// entries are evicted lazily on read; there is no background sweep.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   clockwork.Clock
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// New returns a cache using the real clock.
func New() *Cache {
	return NewWithClock(clockwork.NewRealClock())
}

// NewWithClock returns a cache with an injected time source, so tests can
// exercise expiry without real timers.
func NewWithClock(clock clockwork.Clock) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		clock:   clock,
	}
}

// Get returns the cached value for key. An expired-but-present entry is
// treated identically to an absent one and removed.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := c.entries[key]; ok && !c.clock.Now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		metrics.CacheRequestsTotal.WithLabelValues("expired").Inc()
		return nil, false
	}
	metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return e.value, true
}

// Set stores value under key for ttl.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.clock.Now().Add(ttl)}
	c.mu.Unlock()
}

// Len reports the number of entries currently held, including any expired
// entries not yet evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
