// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

/*
Package matomo is the upstream side of the relay: it builds Matomo Reporting
API queries, resolves request date ranges and executes calls.

# Query Builder

	q := matomo.NewQuery("Events.getName").
	    Site("16").
	    Period(matomo.PeriodRange).
	    Dates(rng).
	    SegmentEquals("eventAction", "from->to")

Values adds module=API, format=JSON and token_auth. Key renders the same
query without the credential for caching and logs.

# Date Ranges

DateResolver never fails. Valid YYYY-MM-DD pairs pass through unchanged;
anything else becomes [today-7, today] (or [today, today] via
ResolveToday), with "today" taken from an injectable Clock in the
configured zone.

# Fetchers

Every layer implements Fetcher:

	CachedFetcher -> RateLimitedFetcher -> BreakerClient -> Client

NewPipeline assembles the chain from configuration. Client returns a body
only when it is valid JSON and not an in-band {"result":"error"} reply.

# Errors

All errors wrap one of ErrUpstream, ErrBadShape or ErrCircuitOpen. The
token is never part of an error message or log line.
*/
package matomo
