// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

/*
Package cache provides a thread-safe in-memory TTL cache for raw Matomo
response bodies.

The cache is opt-in (CACHE_ENABLED, default false). When enabled, the
matomo package's CachedFetcher consults it before calling upstream, keyed by
the query without its credential.

# Behavior

  - Lazy expiration on Get plus a periodic sweep in Serve
  - Bounded size: when full, expired entries go first, then the entry
    closest to expiry
  - Hits, misses and size exported as cache_* metrics labeled by name

Serve implements suture.Service so the sweep runs under the supervision
tree and stops with it:

	c := cache.New("matomo", cfg.Cache.TTL, 0)
	tree.AddAPIService(c)
*/
package cache
