package refdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atheril/caseflow/internal/domain"
)

type tickClock struct {
	now time.Time
}

func (c *tickClock) Now() time.Time { return c.now }

func (c *tickClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTTLCache_HitBeforeExpiry(t *testing.T) {
	clock := &tickClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	cache := NewTTLCache(5*time.Minute, clock)

	cache.Set("regions", "payload")
	clock.advance(4 * time.Minute)

	v, ok := cache.Get("regions")
	require.True(t, ok)
	assert.Equal(t, "payload", v)
}

func TestTTLCache_ExpiresLazilyAtTTL(t *testing.T) {
	clock := &tickClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	cache := NewTTLCache(5*time.Minute, clock)

	cache.Set("regions", "payload")
	clock.advance(5 * time.Minute)

	_, ok := cache.Get("regions")
	assert.False(t, ok)

	// Entry was evicted, a second read is a plain miss
	_, ok = cache.Get("regions")
	assert.False(t, ok)
}

func TestTTLCache_SetRestartsTTL(t *testing.T) {
	clock := &tickClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	cache := NewTTLCache(5*time.Minute, clock)

	cache.Set("venues", 1)
	clock.advance(4 * time.Minute)
	cache.Set("venues", 2)
	clock.advance(4 * time.Minute)

	v, ok := cache.Get("venues")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTTLCache_MissOnUnknownKey(t *testing.T) {
	cache := NewTTLCache(time.Minute, domain.SystemClock{})

	v, ok := cache.Get("nope")
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestTTLCache_ScopedKeyFormat(t *testing.T) {
	cache := NewTTLCache(time.Minute, domain.SystemClock{})

	assert.Equal(t, "filter-options:12", cache.ScopedKey(KeyFilterOptions, 12))
	assert.Equal(t, "regions:1", cache.ScopedKey(KeyRegions, 1))
}
