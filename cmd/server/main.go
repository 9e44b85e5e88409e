// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/tomtom215/matomo-relay/internal/api"
	"github.com/tomtom215/matomo-relay/internal/cache"
	"github.com/tomtom215/matomo-relay/internal/config"
	"github.com/tomtom215/matomo-relay/internal/logging"
	"github.com/tomtom215/matomo-relay/internal/matomo"
	"github.com/tomtom215/matomo-relay/internal/metrics"
	"github.com/tomtom215/matomo-relay/internal/supervisor"
	"github.com/tomtom215/matomo-relay/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// uptimeInterval is how often app_uptime_seconds is refreshed.
const uptimeInterval = 15 * time.Second

func main() {
	started := time.Now()

	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("matomo_url", cfg.Matomo.URL).
		Str("matomo_token", logging.SanitizeToken(cfg.Matomo.Token)).
		Str("default_site_id", cfg.Matomo.DefaultSiteID).
		Str("timezone", cfg.Matomo.Timezone).
		Str("hourly_mode", cfg.Hourly.Mode).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Msg("Starting Matomo Relay")

	warnConfiguration(cfg)
	metrics.SetAppInfo(version)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	var responseCache *cache.Cache
	if cfg.Cache.Enabled {
		responseCache = cache.New("matomo", cfg.Cache.TTL, cache.DefaultMaxEntries)
		tree.AddSupportService(responseCache)
		logging.Info().Dur("ttl", cfg.Cache.TTL).Msg("Response cache enabled")
	}
	tree.AddSupportService(services.NewUptimeService(started, uptimeInterval))

	pipeline := matomo.NewPipeline(cfg, matomo.NewClient(cfg.Matomo), responseCache)
	handler := api.NewHandler(cfg, pipeline.Fetcher, pipeline.Breaker, nil)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(cfg))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, addr, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", addr).Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// warnConfiguration logs settings that are legal but likely unintended.
func warnConfiguration(cfg *config.Config) {
	overlaps := cfg.OverlappingSiteIDs()
	ids := make([]int, 0, len(overlaps))
	for id := range overlaps {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		logging.Warn().
			Int("site_id", id).
			Strs("categories", overlaps[id]).
			Str("resolved_to", overlaps[id][0]).
			Msg("Site ID listed in more than one category")
	}

	if cfg.RateLimit.Disabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.CORS.AllowUnlisted {
		logging.Info().Msg("Unlisted CORS origins are admitted and logged (CORS_ALLOW_UNLISTED=true)")
	}
	for _, origin := range cfg.CORS.AllowedOrigins {
		if origin == "*" {
			logging.Warn().Msg("CORS is configured with wildcard origin (CORS_ORIGINS=*)")
		}
	}
	if cfg.Hourly.Mode == config.HourlyModeAverage {
		logging.Info().
			Int("max_parallel", cfg.Hourly.MaxParallel).
			Msg("Hourly visits averaged per day from raw visit logs")
	}
}
