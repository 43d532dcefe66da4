package cache

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New[string](10, time.Minute)

	c.Set("product:slug-1", "widget")

	got, ok := c.Get("product:slug-1")
	if !ok {
		t.Fatal("expected hit")
	}
	if got != "widget" {
		t.Errorf("Get = %q, want widget", got)
	}

	if _, ok := c.Get("product:missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New[string](10, time.Minute)

	c.SetWithTTL("k", "v", 100*time.Millisecond)

	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should be live immediately after set")
	}

	time.Sleep(150 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("entry should be absent after TTL elapsed")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed lazily, Len = %d", c.Len())
	}
}

func TestCache_PerEntryTTL(t *testing.T) {
	c := New[string](10, time.Minute)

	c.SetWithTTL("short", "a", 100*time.Millisecond)
	c.SetWithTTL("long", "b", time.Minute)

	time.Sleep(150 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("short entry should have expired")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("long entry should still be live")
	}
}

func TestCache_Has(t *testing.T) {
	c := New[string](10, time.Minute)
	c.Set("k", "v")

	if !c.Has("k") {
		t.Error("Has should report a live entry")
	}
	if c.Has("missing") {
		t.Error("Has should report absence")
	}

	// Has is a presence probe: it must not move the counters.
	stats := c.Stats()
	if stats.Hits != 0 || stats.Misses != 0 {
		t.Errorf("Has must not count hits/misses, got %+v", stats)
	}

	c.SetWithTTL("gone", "v", 50*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	if c.Has("gone") {
		t.Error("Has should apply the expiry check")
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[string](10, time.Minute)
	c.Set("k", "v")

	if !c.Delete("k") {
		t.Error("Delete should report success for a present key")
	}
	if c.Delete("k") {
		t.Error("Delete should report failure for an absent key")
	}
	if c.Stats().Deletes != 1 {
		t.Errorf("Deletes = %d, want 1", c.Stats().Deletes)
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c := New[int](3, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the least recently used.
	c.Get("a")

	c.Set("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("least-recently-used entry should have been evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if !c.Has(key) {
			t.Errorf("entry %q should have survived eviction", key)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestCache_Overwrite(t *testing.T) {
	c := New[string](10, time.Minute)

	c.Set("k", "old")
	c.Set("k", "new")

	got, _ := c.Get("k")
	if got != "new" {
		t.Errorf("Get = %q, want new", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCache_GetOrSet_FactoryOnceOnHit(t *testing.T) {
	c := New[string](10, time.Minute)
	c.Set("k", "cached")

	v, err := c.GetOrSet("k", func() (string, error) {
		t.Fatal("factory must not be invoked on a hit")
		return "", nil
	})
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}
	if v != "cached" {
		t.Errorf("GetOrSet = %q, want cached", v)
	}
}

func TestCache_GetOrSet_FactoryCalledOnMiss(t *testing.T) {
	c := New[string](10, time.Minute)

	calls := 0
	v, err := c.GetOrSet("k", func() (string, error) {
		calls++
		return "X", nil
	})
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}
	if v != "X" {
		t.Errorf("GetOrSet = %q, want X", v)
	}
	if calls != 1 {
		t.Errorf("factory calls = %d, want 1", calls)
	}

	got, ok := c.Get("k")
	if !ok || got != "X" {
		t.Errorf("value should now be cached, got %q (ok=%v)", got, ok)
	}
}

func TestCache_GetOrSet_FailureNotCached(t *testing.T) {
	c := New[string](10, time.Minute)
	boom := errors.New("factory failed")

	calls := 0
	_, err := c.GetOrSet("k", func() (string, error) {
		calls++
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if c.Has("k") {
		t.Error("a failed factory result must not be cached")
	}

	// A second call retries the factory.
	_, _ = c.GetOrSet("k", func() (string, error) {
		calls++
		return "", boom
	})
	if calls != 2 {
		t.Errorf("factory calls = %d, want 2", calls)
	}
}

func TestCache_StatsAccounting(t *testing.T) {
	c := New[string](10, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Get("b")
	c.Get("missing")

	stats := c.Stats()
	if stats.Sets != 2 {
		t.Errorf("Sets = %d, want 2", stats.Sets)
	}
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Size != 2 {
		t.Errorf("Size = %d, want 2", stats.Size)
	}
	if stats.MaxSize != 10 {
		t.Errorf("MaxSize = %d, want 10", stats.MaxSize)
	}

	want := 2.0 / 3.0
	if ratio := c.HitRatio(); ratio != want {
		t.Errorf("HitRatio = %f, want %f", ratio, want)
	}
}

func TestCache_HitRatioNoTraffic(t *testing.T) {
	c := New[string](10, time.Minute)
	if ratio := c.HitRatio(); ratio != 0 {
		t.Errorf("HitRatio with no traffic = %f, want 0", ratio)
	}
}

func TestCache_Clear(t *testing.T) {
	c := New[string](10, time.Minute)

	c.Set("a", "1")
	c.Get("a")
	c.Get("missing")
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}

	// Clear resets all counters, cumulative ones included.
	stats := c.Stats()
	if stats.Hits != 0 || stats.Misses != 0 || stats.Sets != 0 || stats.Deletes != 0 {
		t.Errorf("counters after Clear = %+v, want all zero", stats)
	}
}

func TestCache_Info(t *testing.T) {
	c := New[string](10, time.Minute)
	c.SetWithTTL("k", "v", 30*time.Second)

	c.Get("k")
	c.Get("k")

	info, ok := c.Info("k")
	if !ok {
		t.Fatal("Info should find a live entry")
	}
	if info.TTL != 30*time.Second {
		t.Errorf("TTL = %v, want 30s", info.TTL)
	}
	if info.HitCount != 2 {
		t.Errorf("HitCount = %d, want 2", info.HitCount)
	}

	// Info must not touch counters.
	if c.Stats().Hits != 2 {
		t.Errorf("Hits = %d, want 2", c.Stats().Hits)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int](100, time.Minute)

	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k-%d", i%50)
				c.Set(key, i)
				c.Get(key)
				c.Has(key)
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}

	if c.Len() > 100 {
		t.Errorf("Len = %d exceeds capacity", c.Len())
	}
}
