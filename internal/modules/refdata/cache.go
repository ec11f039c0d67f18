// Package refdata supplies slow-changing reference data (regions, venues,
// case-worker profiles, filter-option sets) through an in-process TTL cache.
// Cache misses fall back to the warehouse; the warmup scheduler keeps the
// cache populated ahead of request time.
package refdata

import (
	"strconv"
	"sync"
	"time"

	"github.com/atheril/caseflow/internal/domain"
)

// Base cache keys. Snapshot-scoped entries use ScopedKey.
const (
	KeyRegions       = "regions"
	KeyVenues        = "venues"
	KeyProfiles      = "case-worker-profiles"
	KeyFilterOptions = "filter-options"
)

// Cache is the reference-data cache contract. Implementations never fail:
// any internal problem degrades to a miss, never to an error.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	ScopedKey(base string, snapshotID int64) string
}

type ttlEntry struct {
	value    interface{}
	storedAt time.Time
}

// TTLCache is an in-process cache where a single process-wide TTL governs
// every entry. There is no per-key TTL and no manual invalidation: entries
// expire and are refetched lazily on the next miss. Correctness relies on
// the TTL being short relative to how often the published snapshot changes.
type TTLCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   domain.Clock
	entries map[string]ttlEntry
}

// NewTTLCache creates a cache with the given TTL
func NewTTLCache(ttl time.Duration, clock domain.Clock) *TTLCache {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &TTLCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]ttlEntry),
	}
}

// Get returns the cached value, treating expired entries as misses and
// evicting them lazily.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if c.clock.Now().Sub(e.storedAt) >= c.ttl {
		c.mu.Lock()
		// Only evict the version we saw; a concurrent Set wins
		if cur, still := c.entries[key]; still && cur.storedAt.Equal(e.storedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// Set stores or overwrites a value, restarting its TTL
func (c *TTLCache) Set(key string, value interface{}) {
	c.mu.Lock()
	c.entries[key] = ttlEntry{value: value, storedAt: c.clock.Now()}
	c.mu.Unlock()
}

// ScopedKey derives a snapshot-scoped key: "<base>:<snapshotID>"
func (c *TTLCache) ScopedKey(base string, snapshotID int64) string {
	return base + ":" + strconv.FormatInt(snapshotID, 10)
}

// setAt seeds an entry with an explicit stored-at instant, used when
// reloading spilled entries so they keep their original expiry.
func (c *TTLCache) setAt(key string, value interface{}, storedAt time.Time) {
	c.mu.Lock()
	c.entries[key] = ttlEntry{value: value, storedAt: storedAt}
	c.mu.Unlock()
}
