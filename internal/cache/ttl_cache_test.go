package cache

import (
	"sync"
	"testing"
	"time"
)

// fakeClock returns a cache whose clock the test advances by hand.
func fakeClock[K comparable, V any](ttl time.Duration) (*TTLCache[K, V], *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[K, V](ttl)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestSetAndGet(t *testing.T) {
	c := New[string, []byte](time.Minute)
	c.Set("https://api/translations/20", []byte("body"))

	v, ok := c.Get("https://api/translations/20")
	if !ok || string(v) != "body" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if _, ok := c.Get("https://api/translations/21"); ok {
		t.Error("Get returned ok for missing key")
	}
}

func TestPerEntryExpiry(t *testing.T) {
	c, now := fakeClock[string, int](10 * time.Second)

	c.Set("a", 1)
	*now = now.Add(6 * time.Second)
	c.Set("b", 2)
	*now = now.Add(5 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("b = %d, %v; should still be live", v, ok)
	}

	if n := c.Prune(); n != 1 {
		t.Errorf("Prune removed %d, want 1", n)
	}
	if n := len(c.data); n != 1 {
		t.Errorf("%d entries left after Prune", n)
	}
}

func TestSetRestartsTTL(t *testing.T) {
	c, now := fakeClock[string, int](10 * time.Second)
	c.Set("a", 1)
	*now = now.Add(9 * time.Second)
	c.Set("a", 2)
	*now = now.Add(9 * time.Second)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get = %d, %v", v, ok)
	}
}

func TestDisabled(t *testing.T) {
	c := New[string, int](0)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Error("zero TTL should disable caching")
	}
	if n := len(c.data); n != 0 {
		t.Errorf("%d entries stored with caching disabled", n)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int](time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(id*100+j, j)
				c.Get(id*100 + j)
			}
		}(i)
	}
	wg.Wait()
	if n := len(c.data); n != 800 {
		t.Errorf("%d entries, want 800", n)
	}
}
