// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/matomo-relay/internal/metrics"
)

// fakeClock lets tests expire entries without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T, ttl time.Duration, maxEntries int) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := New("test-"+t.Name(), ttl, maxEntries)
	c.now = clock.Now
	return c, clock
}

func TestCacheBasicOperations(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 0)

	c.Set("Events.getName&idSite=16", []byte(`[{"label":"a"}]`))
	value, exists := c.Get("Events.getName&idSite=16")
	if !exists {
		t.Fatal("expected key to exist")
	}
	if string(value) != `[{"label":"a"}]` {
		t.Errorf("Get() = %s", value)
	}

	if _, exists := c.Get("missing"); exists {
		t.Error("expected missing key to be absent")
	}
}

func TestCacheExpiration(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 0)

	c.Set("k", []byte("v"))
	clock.Advance(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should still be live before TTL")
	}

	clock.Advance(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should be expired after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be dropped on Get, Len() = %d", c.Len())
	}
	if got := c.GetStats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestCacheSetWithTTL(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 0)

	c.SetWithTTL("short", []byte("1"), time.Second)
	c.Set("default", []byte("2"))

	clock.Advance(2 * time.Second)
	if _, ok := c.Get("short"); ok {
		t.Error("custom TTL entry should have expired")
	}
	if _, ok := c.Get("default"); !ok {
		t.Error("default TTL entry should be live")
	}
}

func TestCacheClear(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 0)

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), []byte("v"))
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if got := c.GetStats().Evictions; got != 3 {
		t.Errorf("Evictions after Clear = %d, want 3", got)
	}
}

func TestCacheMaxEntries(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 2)

	c.Set("first", []byte("1"))
	clock.Advance(time.Second)
	c.Set("second", []byte("2"))
	clock.Advance(time.Second)
	c.Set("third", []byte("3"))

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if _, ok := c.Get("first"); ok {
		t.Error("entry closest to expiry should have been evicted")
	}
	if _, ok := c.Get("third"); !ok {
		t.Error("newest entry should be present")
	}

	// Overwriting an existing key never evicts
	c.Set("second", []byte("2b"))
	if c.Len() != 2 {
		t.Errorf("Len() after overwrite = %d, want 2", c.Len())
	}
}

func TestCacheMaxEntriesSweepsExpiredFirst(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 2)

	c.SetWithTTL("stale", []byte("x"), time.Second)
	c.Set("live", []byte("y"))
	clock.Advance(2 * time.Second)
	c.Set("new", []byte("z"))

	if _, ok := c.Get("live"); !ok {
		t.Error("live entry should survive when an expired one can be swept")
	}
	if _, ok := c.Get("new"); !ok {
		t.Error("new entry should be stored")
	}
}

func TestCacheCleanup(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 0)

	c.SetWithTTL("a", []byte("1"), time.Second)
	c.SetWithTTL("b", []byte("2"), time.Second)
	c.Set("c", []byte("3"))
	clock.Advance(2 * time.Second)

	if removed := c.Cleanup(); removed != 2 {
		t.Errorf("Cleanup() removed %d, want 2", removed)
	}
	stats := c.GetStats()
	if stats.TotalKeys != 1 {
		t.Errorf("TotalKeys = %d, want 1", stats.TotalKeys)
	}
	if !stats.LastCleanup.Equal(clock.Now()) {
		t.Errorf("LastCleanup = %v, want %v", stats.LastCleanup, clock.Now())
	}
}

func TestCacheHitRate(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 0)

	if rate := c.HitRate(); rate != 0 {
		t.Errorf("HitRate() with no operations = %v, want 0", rate)
	}

	c.Set("k", []byte("v"))
	c.Get("k")
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	if rate := c.HitRate(); rate != 75 {
		t.Errorf("HitRate() = %v, want 75", rate)
	}
}

func TestCacheMetrics(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 0)

	c.Set("k", []byte("v"))
	c.Get("k")
	c.Get("missing")

	if got := testutil.ToFloat64(metrics.CacheHits.WithLabelValues(c.name)); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CacheMisses.WithLabelValues(c.name)); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CacheSize.WithLabelValues(c.name)); got != 1 {
		t.Errorf("cache size = %v, want 1", got)
	}
}

func TestCacheServeStopsOnCancel(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 0)
	c.Set("live", []byte("v"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if c.Len() != 0 {
		t.Errorf("Len() after Serve returned = %d, want 0", c.Len())
	}
	if !strings.HasPrefix(c.String(), "cache-") {
		t.Errorf("String() = %q", c.String())
	}
}

func TestCacheConcurrency(t *testing.T) {
	c := New("test-concurrency", time.Minute, 100)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%150)
				c.Set(key, []byte("v"))
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("Len() = %d, exceeds max entries", c.Len())
	}
}

func TestGenerateKey(t *testing.T) {
	a := GenerateKey("matomo", "Events.getName&date=2026-03-01,2026-03-07&idSite=16")
	b := GenerateKey("matomo", "Events.getName&date=2026-03-01,2026-03-07&idSite=16")
	c := GenerateKey("matomo", "Events.getName&date=2026-03-01,2026-03-07&idSite=26")

	if a != b {
		t.Error("same input must yield the same key")
	}
	if a == c {
		t.Error("different input must yield different keys")
	}
	if !strings.HasPrefix(a, "matomo:") || len(a) != len("matomo:")+32 {
		t.Errorf("GenerateKey() = %q, want matomo: prefix and 32 hex chars", a)
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := New("bench", time.Minute, 0)
	c.Set("key", []byte(`{"nb_visits":5}`))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}
