// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

/*
Package supervisor provides process supervision for Matomo Relay using suture v4.

The tree separates background housekeeping from the listener:

	RootSupervisor ("matomo-relay")
	├── SupportSupervisor ("support-layer")
	│   ├── cache.Cache (if CACHE_ENABLED, expired-entry sweeper)
	│   └── UptimeService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services restart with suture's backoff. Canceling the context passed
to Serve stops every service, waiting at most ShutdownTimeout for each.

# Logging

Supervisor events (start, stop, panic, backoff) are reported through
sutureslog. The slog logger passed to NewSupervisorTree is normally
logging.NewSlogLogger, so events end up in the zerolog output:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddSupportService(responseCache)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)

# See Also

  - internal/supervisor/services: suture.Service wrappers
  - github.com/thejerf/suture/v4
*/
package supervisor
