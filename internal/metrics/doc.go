// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

/*
Package metrics provides Prometheus metrics for Matomo Relay.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput (per route pattern)
  - Matomo upstream calls by API method and outcome
  - Per-day fan-out width of aggregate requests
  - Rows skipped while reshaping upstream payloads
  - Circuit breaker state transitions
  - Cache hit/miss rates (when the optional cache is enabled)

# Metrics Endpoint

Metrics are exposed at /metrics in Prometheus text format:

	curl http://localhost:3000/metrics

All collectors register with the default registry through promauto, so
importing the package is enough to expose them.
*/
package metrics
