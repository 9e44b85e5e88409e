// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package matomo

import (
	"context"

	"github.com/tomtom215/matomo-relay/internal/cache"
)

// CachedFetcher serves repeated queries from a TTL cache. Only successful
// bodies are stored; errors always reach the caller fresh.
type CachedFetcher struct {
	next  Fetcher
	cache *cache.Cache
}

// NewCachedFetcher wraps next with c.
func NewCachedFetcher(next Fetcher, c *cache.Cache) *CachedFetcher {
	return &CachedFetcher{next: next, cache: c}
}

// Fetch returns a cached body when present, otherwise delegates and stores.
func (f *CachedFetcher) Fetch(ctx context.Context, q *Query) ([]byte, error) {
	key := cache.GenerateKey("matomo", q.Key())
	if body, ok := f.cache.Get(key); ok {
		return body, nil
	}

	body, err := f.next.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	f.cache.Set(key, body)
	return body, nil
}
