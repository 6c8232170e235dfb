// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestLRU_Eviction(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	// touch a so b becomes least recently used
	c.Get("a")
	c.Add("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("expected 'b' to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("expected %q to be present", k)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLRU_TTLExpiration(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRU[string, string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Add("u1", "Ana")
	if v, ok := c.Get("u1"); !ok || v != "Ana" {
		t.Fatalf("Get = %q, %v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("u1"); ok {
		t.Error("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed on access, Len() = %d", c.Len())
	}
}

func TestLRU_UpdateRefreshes(t *testing.T) {
	t.Parallel()

	c := NewLRU[int, string](2, time.Minute)
	c.Add(1, "one")
	c.Add(2, "two")
	c.Add(1, "uno")
	c.Add(3, "three")

	if v, ok := c.Get(1); !ok || v != "uno" {
		t.Errorf("Get(1) = %q, %v; want uno", v, ok)
	}
	if _, ok := c.Get(2); ok {
		t.Error("expected 2 to be evicted")
	}
	if !c.Remove(1) || c.Remove(1) {
		t.Error("Remove should succeed once")
	}
}

func TestLRU_Stats(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](5, time.Minute)
	c.Add("x", 1)
	c.Get("x")
	c.Get("y")

	hits, misses, size := c.Stats()
	if hits != 1 || misses != 1 || size != 1 {
		t.Errorf("Stats() = %d, %d, %d; want 1, 1, 1", hits, misses, size)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](100, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := strconv.Itoa((g*500 + i) % 150)
				c.Add(k, i)
				c.Get(k)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}

func TestLRU_Purge(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](10, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Purge()

	if c.Len() != 0 {
		t.Fatalf("Len() after Purge = %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("purged key still present")
	}
	c.Add("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Error("cache unusable after Purge")
	}
}
