// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/matomo-relay/internal/logging"
	"github.com/tomtom215/matomo-relay/internal/metrics"
)

// DefaultMaxEntries bounds memory when no limit is configured.
const DefaultMaxEntries = 10000

// DefaultCleanupInterval is how often Serve sweeps expired entries.
const DefaultCleanupInterval = time.Minute

// Entry represents a cached upstream body with expiration
type Entry struct {
	Data      []byte
	ExpiresAt time.Time
}

// Cache is a thread-safe in-memory TTL cache of raw upstream bodies.
//
// Entries are immutable once stored: callers must not modify a slice
// returned by Get.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttl        time.Duration
	maxEntries int
	name       string
	now        func() time.Time
	stats      Stats
}

// Stats tracks cache performance counters
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// New creates a cache whose entries live for ttl. maxEntries <= 0 uses
// DefaultMaxEntries. name is the cache_type metrics label.
//
// No goroutine is started; run Serve under the supervisor to sweep expired
// entries. Expired entries are also dropped lazily on Get.
func New(name string, ttl time.Duration, maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		entries:    make(map[string]Entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		name:       name,
		now:        time.Now,
	}
}

// Get returns a live entry's body.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if c.now().After(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed the entry
		if current, ok := c.entries[key]; ok && !c.now().Before(current.ExpiresAt) {
			delete(c.entries, key)
			c.stats.Evictions++
		}
		c.updateSizeLocked()
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores data with the default TTL.
func (c *Cache) Set(key string, data []byte) {
	c.SetWithTTL(key, data, c.ttl)
}

// SetWithTTL stores data with a custom TTL. When the cache is full, expired
// entries are swept first; if it is still full the entry closest to
// expiry is evicted.
func (c *Cache) SetWithTTL(key string, data []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.sweepLocked(c.now())
		if len(c.entries) >= c.maxEntries {
			c.evictSoonestLocked()
		}
	}

	c.entries[key] = Entry{
		Data:      data,
		ExpiresAt: c.now().Add(ttl),
	}
	c.updateSizeLocked()
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.stats.Evictions += int64(len(c.entries))
	c.entries = make(map[string]Entry)
	c.updateSizeLocked()
	c.mu.Unlock()
}

// Len returns the number of stored entries, including not-yet-swept expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a snapshot of the counters.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// Serve sweeps expired entries every DefaultCleanupInterval until ctx ends.
// It satisfies suture.Service. The cache is emptied on exit so a restarted
// sweeper never serves entries it did not watch expire.
func (c *Cache) Serve(ctx context.Context) error {
	ticker := time.NewTicker(DefaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Clear()
			return ctx.Err()
		case <-ticker.C:
			removed := c.Cleanup()
			logging.Debug().
				Str("cache", c.name).
				Int("removed", removed).
				Int("entries", c.Len()).
				Float64("hit_rate", c.HitRate()).
				Msg("Cache sweep completed")
		}
	}
}

// String names the service in supervisor logs.
func (c *Cache) String() string {
	return "cache-" + c.name
}

// Cleanup removes all expired entries and returns how many were dropped.
func (c *Cache) Cleanup() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.sweepLocked(now)
	c.stats.LastCleanup = now
	c.updateSizeLocked()
	return removed
}

func (c *Cache) sweepLocked(now time.Time) int {
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.stats.Evictions += int64(removed)
	return removed
}

func (c *Cache) evictSoonestLocked() {
	var (
		victim string
		soon   time.Time
		found  bool
	)
	for key, entry := range c.entries {
		if !found || entry.ExpiresAt.Before(soon) {
			victim, soon, found = key, entry.ExpiresAt, true
		}
	}
	if found {
		delete(c.entries, victim)
		c.stats.Evictions++
	}
}

func (c *Cache) updateSizeLocked() {
	c.stats.TotalKeys = int64(len(c.entries))
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

func (c *Cache) recordHit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
	metrics.CacheHits.WithLabelValues(c.name).Inc()
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
	metrics.CacheMisses.WithLabelValues(c.name).Inc()
}

// GenerateKey creates a compact cache key from a namespace and a raw key.
func GenerateKey(namespace, raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s:%x", namespace, hash[:16])
}
