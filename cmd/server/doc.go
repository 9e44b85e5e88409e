// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

/*
Package main is the entry point for the Matomo Relay server.

Matomo Relay sits between the kiosk analytics dashboard and a Matomo
instance. It holds the Matomo token, turns dashboard requests into Reporting
API calls and reshapes the replies into the JSON the dashboard renders.

# Application Architecture

	RootSupervisor ("matomo-relay")
	├── SupportSupervisor ("support-layer")
	│   ├── Response cache sweeper (if CACHE_ENABLED)
	│   └── Uptime ticker
	└── APISupervisor ("api-layer")
	    └── HTTP Server (Chi router)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and an optional YAML file
 2. Logging: zerolog with JSON/console output modes
 3. Supervisor Tree: Suture v4 process supervision
 4. Upstream pipeline: cache, rate limiter, circuit breaker, Matomo client
 5. HTTP Server: Chi router with CORS, rate limiting and metrics

# Graceful Shutdown

SIGINT or SIGTERM cancels the tree. The HTTP server stops accepting
connections and in-flight requests get SERVER shutdown_timeout (10s) to
finish.

# Usage

	MATOMO_TOKEN=... MATOMO_DEFAULT_SITE_ID=16 ./matomo-relay

Docker:

	docker run -d \
	  -e MATOMO_API_URL=https://analytics.example.com \
	  -e MATOMO_TOKEN=your-token \
	  -e MATOMO_TIMEZONE=Europe/Istanbul \
	  -p 3000:3000 \
	  ghcr.io/tomtom215/matomo-relay
*/
package main
