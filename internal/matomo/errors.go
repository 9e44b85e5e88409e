// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package matomo

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers classify with errors.Is; every returned error
// wraps exactly one of these with request context via fmt.Errorf("%w").
var (
	// ErrUpstream covers transport failures, non-2xx statuses and Matomo's
	// in-band {"result":"error"} replies.
	ErrUpstream = errors.New("matomo upstream error")

	// ErrBadShape means Matomo answered but the payload is not the container
	// (array or object) the reshaper expects, or is not JSON at all.
	ErrBadShape = errors.New("unexpected matomo response shape")

	// ErrCircuitOpen is returned without contacting Matomo while the
	// circuit breaker is open or saturated in half-open state.
	ErrCircuitOpen = errors.New("matomo circuit breaker open")
)

// APIError is Matomo's in-band error reply, delivered with HTTP 200.
type APIError struct {
	Method  string
	Message string
}

func (e *APIError) Error() string {
	return e.Method + ": " + e.Message
}

// Unwrap makes errors.Is(err, ErrUpstream) hold for in-band errors.
func (e *APIError) Unwrap() error {
	return ErrUpstream
}

// StatusError is a non-2xx HTTP reply from Matomo.
type StatusError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Method, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstream
}
