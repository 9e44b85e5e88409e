// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

/*
Package config provides configuration loading and validation for Matomo Relay.

# Configuration Sources

Configuration is layered with Koanf v2 (highest priority wins):
  - Environment variables (explicit mapping, see envMappings)
  - YAML config file (CONFIG_PATH, ./config.yaml, /etc/matomo-relay/config.yaml)
  - Built-in defaults

# Environment Variables

Server:
  - PORT / HTTP_PORT: Listen port (default: 3000)
  - HTTP_HOST: Bind address (default: 0.0.0.0)
  - HTTP_TIMEOUT: Request read timeout (default: 30s)
  - HTTP_WRITE_TIMEOUT: Response write timeout (default: 0, disabled)

Matomo:
  - MATOMO_API_URL: Matomo base URL (default: https://analytics.inmapper.com)
  - MATOMO_TOKEN: token_auth credential (required)
  - MATOMO_DEFAULT_SITE_ID: siteId used when a request omits it
  - MATOMO_TIMEZONE: IANA zone for "today" and hour bucketing (default: UTC)
  - MATOMO_MAX_RPS / MATOMO_BURST: outbound request limiter (default: off / 8)

Hourly visits:
  - HOURLY_MODE: last_write or average (default: last_write)
  - HOURLY_MAX_PARALLEL: concurrent per-day calls in average mode (default: 8)

HTTP surface:
  - CORS_ORIGINS: comma-separated frontend origins
  - CORS_ALLOW_UNLISTED: admit unlisted origins after logging them (default: true)
  - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW / DISABLE_RATE_LIMIT
  - CACHE_ENABLED / CACHE_TTL: optional response cache (default: disabled)
  - CIRCUIT_BREAKER_TIMEOUT: open-state duration (default: 30s)

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Site Categories

The category table is configured only from YAML because it is a nested list:

	categories:
	  - key: avm
	    name: AVM
	    icon: "🛍️"
	    color: "#FF6B6B"
	    sites: [16, 26, 195]
	  - key: diger
	    name: Diğer
	    icon: "📍"
	    color: "#95A5A6"
	    sites: [2, 183]

A YAML table replaces the shipped table entirely. The default category
(key "diger") must be present. Order matters: a site listed in two
categories resolves to the earlier one.
*/
package config
