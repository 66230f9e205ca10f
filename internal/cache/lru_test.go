package cache

import (
	"testing"
	"time"
)

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry survived eviction")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("b = %d %v, want 2 true", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("size = %d, want 2", c.Size())
	}
}

func TestLRUGetRefreshesRecency(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	c.Set("a", "x")
	c.Set("b", "y")
	c.Get("a")
	c.Set("c", "z")

	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry evicted")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry survived")
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry returned")
	}
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired = %d, want 1", n)
	}
}

func TestLRUDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("summary:7:a", 1)
	c.Set("summary:7:b", 2)
	c.Set("summary:8:a", 3)

	if n := c.DeletePrefix("summary:7:"); n != 2 {
		t.Errorf("DeletePrefix = %d, want 2", n)
	}
	if _, ok := c.Get("summary:8:a"); !ok {
		t.Error("unrelated entry removed")
	}
	if c.Size() != 1 {
		t.Errorf("size = %d, want 1", c.Size())
	}
}
