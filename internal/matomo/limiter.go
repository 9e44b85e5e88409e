// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package matomo

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedFetcher spaces outbound calls so a burst of dashboard loads or
// a wide average-mode fan-out cannot flood a small Matomo instance.
type RateLimitedFetcher struct {
	next    Fetcher
	limiter *rate.Limiter
}

// NewRateLimitedFetcher allows rps calls per second with the given burst.
func NewRateLimitedFetcher(next Fetcher, rps float64, burst int) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Fetch waits for a token, then delegates. Waiting respects ctx, so a
// disconnected client stops queueing.
func (f *RateLimitedFetcher) Fetch(ctx context.Context, q *Query) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: waiting for rate limiter: %w", ErrUpstream, q.Method(), err)
	}
	return f.next.Fetch(ctx, q)
}
