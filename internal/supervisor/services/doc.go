// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

/*
Package services provides suture.Service wrappers for Matomo Relay components.

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Binds the listen address inside Serve so bind errors reach the supervisor
  - Graceful shutdown with a configurable drain timeout

Uptime (UptimeService):
  - Refreshes the app_uptime_seconds gauge until the context is canceled

The response cache (internal/cache) implements suture.Service itself and is
added to the support layer directly.

# Error Handling

Services return:
  - ctx.Err() on clean shutdown
  - any other error to request a restart with backoff
*/
package services
