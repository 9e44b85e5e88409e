// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/matomo-relay/internal/matomo"
)

// Error codes for API responses
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeUpstream            = "UPSTREAM_ERROR"
	ErrCodeBadUpstreamResponse = "BAD_UPSTREAM_RESPONSE"
	ErrCodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// upstreamFailure is how a failed upstream call is reported to the caller.
type upstreamFailure struct {
	status  int
	code    string
	message string
}

// classifyUpstream maps pipeline errors to a response. Every upstream
// failure is a 500; the code tells an unreachable Matomo apart from one
// that answered with something unusable. what names the data for the
// message, e.g. "searched events".
func classifyUpstream(err error, what string) upstreamFailure {
	switch {
	case errors.Is(err, matomo.ErrCircuitOpen):
		return upstreamFailure{http.StatusInternalServerError, ErrCodeUpstream,
			"Analytics service unavailable, could not fetch " + what}
	case errors.Is(err, matomo.ErrBadShape):
		return upstreamFailure{http.StatusInternalServerError, ErrCodeBadUpstreamResponse,
			"Unexpected response format while fetching " + what}
	case errors.Is(err, matomo.ErrUpstream):
		return upstreamFailure{http.StatusInternalServerError, ErrCodeUpstream,
			"Failed to fetch " + what}
	default:
		return upstreamFailure{http.StatusInternalServerError, ErrCodeInternalError,
			"Failed to process " + what}
	}
}

// clientGone reports whether err only reflects the caller disconnecting.
func clientGone(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}
