// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

/*
Package api provides the HTTP layer of Matomo Relay.

Each endpoint translates one dashboard request into one or more Matomo
Reporting API calls, then either relays the upstream JSON unchanged or
reshapes it with package reshape.

Key Components:

  - Router: chi route table and middleware stack
  - Handler: request handlers, one per dashboard endpoint
  - ResponseWriter: JSON writing and the error envelope
  - ChiMiddleware: CORS, rate limiting and security headers

Endpoints:

	GET /api/events/from-to-names      Events.getName, eventAction==from->to (relayed)
	GET /api/events/summary-counts     Events.getAction reshaped to per-action totals
	GET /api/events/searched           Events.getName, eventAction==searched (relayed)
	GET /api/events/searched-daily     per-day search term totals
	GET /api/events/touched            {label: visits}
	GET /api/events/initialized        {kiosk: visits} without platform markers
	GET /api/events/daily-count        per-day action totals
	GET /api/user-statistics           visits summary plus top device type
	GET /api/hourly-visits             24 hourly visit counts
	GET /api/sites                     sites grouped by category
	GET /api/export-unique-visitors    VisitsSummary.get (relayed)
	GET /api/os-distribution           [{osFamily, visits}]
	GET /api/user-language-distribution {language: visits}
	GET /api/campaigns                 Referrers.getCampaigns (relayed, siteId required)
	GET /  /health  /health/ready  /metrics

Common query parameters are siteId (falls back to the configured default)
and startDate/endDate as YYYY-MM-DD (fall back to the last seven days,
today only for hourly visits).

Responses:

Successful responses are the bare payload the dashboard consumes. Failures
use an envelope:

	{"success": false, "error": {"code": "UPSTREAM_ERROR", "message": "...", "request_id": "..."}}

Every upstream failure maps to 500. The code distinguishes an unreachable
or failing Matomo (UPSTREAM_ERROR) from an answer of the wrong shape
(BAD_UPSTREAM_RESPONSE). The hourly endpoint keeps its own failure body,
{"success": false, "message": "...", "error": "..."}.

Thread Safety:

Handlers hold no per-request state and are safe for concurrent use.
*/
package api
