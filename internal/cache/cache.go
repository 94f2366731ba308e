// Package cache provides an in-memory TTL key/value store. Entries expire
// lazily: an expired entry is removed on the read that observes it; there is
// no background sweep.
package cache

import (
	"sync"
	"time"
)

const DefaultTTL = 5 * time.Minute

// Clock abstracts time for expiry tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type item struct {
	value     any
	createdAt time.Time
	expiresAt time.Time
}

type Cache struct {
	defaultTTL time.Duration
	clock      Clock

	mu    sync.RWMutex
	items map[string]item
}

func New(defaultTTL time.Duration) *Cache {
	return NewWithClock(defaultTTL, realClock{})
}

func NewWithClock(defaultTTL time.Duration, clock Clock) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		defaultTTL: defaultTTL,
		clock:      clock,
		items:      make(map[string]item),
	}
}

// Set stores value under key. A ttl <= 0 falls back to the default TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

// Get returns the live value for key. A read past expiry behaves as a miss
// and evicts the stale entry.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !c.clock.Now().Before(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry.
		if current, ok := c.items[key]; ok && current.expiresAt == entry.expiresAt {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]item)
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
