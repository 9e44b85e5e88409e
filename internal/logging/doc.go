// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

// Package logging provides centralized zerolog-based structured logging for Matomo Relay.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("addr", addr).Msg("Server starting")
//	logging.Error().Err(err).Msg("Upstream call failed")
//
//	// Request-scoped logging (request_id and correlation_id attached)
//	logging.Ctx(r.Context()).Warn().Str("label", label).Msg("Skipped row")
//
// # Configuration
//
// Environment Variables (read by internal/config):
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// # Sensitive Data
//
// The Matomo token travels as the token_auth query parameter. Never log an
// upstream URL without passing it through SanitizeURL first. Raw upstream
// payloads logged for diagnosis go through TruncatePayload.
//
// # slog Adapter
//
// SlogHandler lets slog consumers (sutureslog in internal/supervisor) write
// through the same zerolog output:
//
//	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
package logging
