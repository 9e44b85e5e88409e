// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

/*
Package middleware provides http.HandlerFunc middleware shared by the router.

Key Components:

  - RequestID: assigns X-Request-ID and seeds the logging context
  - PrometheusMetrics: request count, latency and in-flight instrumentation
  - Compression: gzip for clients sending Accept-Encoding: gzip

The api package adapts these to chi's func(http.Handler) http.Handler shape
and installs them with r.Use:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Route("/api", func(r chi.Router) {
	    r.Use(chiMiddleware(middleware.PrometheusMetrics))
	    r.Use(chiMiddleware(middleware.Compression))
	    ...
	})

PrometheusMetrics labels requests by chi route pattern rather than raw path,
so /api/sites?siteId=5 and /api/sites?siteId=6 share one series and
unrouted paths collapse into "unmatched".

See Also:

  - internal/metrics: collector definitions
  - internal/logging: request and correlation ID context helpers
*/
package middleware
