// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package api

import (
	"time"

	"github.com/tomtom215/matomo-relay/internal/config"
	"github.com/tomtom215/matomo-relay/internal/matomo"
	"github.com/tomtom215/matomo-relay/internal/reshape"
)

// ServiceName is reported by the root status endpoint.
const ServiceName = "Matomo Analytics Backend"

// BreakerState reports circuit state for readiness checks.
type BreakerState interface {
	State() string
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: Shared request parsing and upstream helpers
//   - handlers_health.go: Status and health endpoints
//   - handlers_events.go: Event report endpoints
//   - handlers_visits.go: Visitor, device and campaign endpoints
//   - handlers_hourly.go: Hourly visit distribution
//   - handlers_sites.go: Site directory
type Handler struct {
	config     *config.Config
	fetcher    matomo.Fetcher
	resolver   *matomo.DateResolver
	classifier *reshape.Classifier
	breaker    BreakerState
	startTime  time.Time
}

// NewHandler creates a handler serving every dashboard endpoint.
//
// fetcher is the assembled upstream pipeline (see matomo.NewPipeline).
// breaker may be nil, in which case readiness never reports the circuit.
// clock may be nil to use the wall clock.
//
// Example:
//
//	p := matomo.NewPipeline(cfg, matomo.NewClient(cfg.Matomo), c)
//	handler := api.NewHandler(cfg, p.Fetcher, p.Breaker, nil)
//	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(cfg))
//	http.ListenAndServe(":3000", router.SetupChi())
func NewHandler(cfg *config.Config, fetcher matomo.Fetcher, breaker BreakerState, clock matomo.Clock) *Handler {
	return &Handler{
		config:     cfg,
		fetcher:    fetcher,
		resolver:   matomo.NewDateResolver(clock, cfg.Location()),
		classifier: reshape.NewClassifier(cfg.Categories),
		breaker:    breaker,
		startTime:  time.Now(),
	}
}
