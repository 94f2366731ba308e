package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

func TestGetAfterSet(t *testing.T) {
	c := New(time.Minute)
	c.Set("k", "v", 0)

	got, ok := c.Get("k")
	if !ok {
		t.Fatalf("expected hit")
	}
	if got != "v" {
		t.Fatalf("got %v, want v", got)
	}
}

func TestExpiredEntryIsMissAndEvicted(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c := NewWithClock(time.Minute, clock)
	c.Set("k", 42, 30*time.Second)

	clock.Advance(30 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss at exact expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("expected stale entry evicted, len=%d", c.Len())
	}
}

func TestSetZeroTTLUsesDefault(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c := NewWithClock(2*time.Minute, clock)
	c.Set("k", "v", 0)

	clock.Advance(time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected hit before default TTL")
	}
	clock.Advance(time.Minute + time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after default TTL")
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss after delete")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatalf("expected b to survive delete of a")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected miss after clear")
	}
}

func TestOverwriteRefreshesExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c := NewWithClock(time.Minute, clock)
	c.Set("k", "old", time.Minute)

	clock.Advance(45 * time.Second)
	c.Set("k", "new", time.Minute)

	clock.Advance(30 * time.Second)
	got, ok := c.Get("k")
	if !ok {
		t.Fatalf("expected refreshed entry to be live")
	}
	if got != "new" {
		t.Fatalf("got %v, want new", got)
	}
}
