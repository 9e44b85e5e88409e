// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package matomo

import (
	"github.com/tomtom215/matomo-relay/internal/cache"
	"github.com/tomtom215/matomo-relay/internal/config"
)

// Pipeline is the assembled upstream stack handlers call through.
type Pipeline struct {
	// Fetcher is the outermost layer: cache -> rate limiter -> breaker -> client.
	Fetcher Fetcher

	// Breaker exposes circuit state for health reporting.
	Breaker *BreakerClient
}

// NewPipeline wires the client with the optional layers cfg enables.
// c may be nil when caching is disabled.
func NewPipeline(cfg *config.Config, client Fetcher, c *cache.Cache) *Pipeline {
	breaker := NewBreakerClient(client, cfg.CircuitBreaker)

	var f Fetcher = breaker
	if cfg.Matomo.RequestsPerSecond > 0 {
		f = NewRateLimitedFetcher(f, cfg.Matomo.RequestsPerSecond, cfg.Matomo.Burst)
	}
	if cfg.Cache.Enabled && c != nil {
		f = NewCachedFetcher(f, c)
	}

	return &Pipeline{Fetcher: f, Breaker: breaker}
}
