// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package api

import (
	"net/http"
	"time"
)

// Root reports that the service is up, for platform health probes.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).JSON(http.StatusOK, map[string]string{
		"status":    "ok",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

// Health handles liveness checks. It never contacts Matomo.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// HealthReady reports 503 while the Matomo circuit breaker is open so a
// load balancer can route around an instance whose upstream is failing.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	state := "unknown"
	if h.breaker != nil {
		state = h.breaker.State()
	}

	status, code := "ready", http.StatusOK
	if state == "open" {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	NewResponseWriter(w, r).JSON(code, map[string]interface{}{
		"status":          status,
		"circuit_breaker": state,
		"uptime":          time.Since(h.startTime).Seconds(),
	})
}
