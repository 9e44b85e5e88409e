// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package middleware

import (
	"net/http"

	"github.com/tomtom215/matomo-relay/internal/logging"
)

// RequestIDHeader is read from inbound requests and echoed on every response.
const RequestIDHeader = "X-Request-ID"

// maxInboundRequestIDLen caps IDs accepted from an upstream proxy.
const maxInboundRequestIDLen = 128

// RequestID assigns every request an ID, reusing a well-formed X-Request-ID
// from a fronting proxy. The ID lands in the response header and in the
// logging context together with a fresh correlation ID, so logging.Ctx picks
// both up downstream.
func RequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if !validInboundID(requestID) {
			requestID = logging.GenerateRequestID()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)

		next(w, r.WithContext(ctx))
	}
}

// validInboundID rejects empty, oversized or non-printable IDs so they never
// reach log lines verbatim.
func validInboundID(id string) bool {
	if id == "" || len(id) > maxInboundRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
