// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/matomo-relay/internal/logging"
)

// APIResponse is the error envelope. Data endpoints answer with bare
// payloads the dashboard already understands; only failures are wrapped.
type APIResponse struct {
	// Success is always false for envelopes written by this package
	Success bool `json:"success"`

	// Error contains error details
	Error *APIError `json:"error,omitempty"`
}

// APIError represents an error response.
type APIError struct {
	// Code is a machine-readable error code
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// Details contains additional error details (optional)
	Details interface{} `json:"details,omitempty"`

	// RequestID is the request ID for tracing
	RequestID string `json:"request_id,omitempty"`
}

// ResponseWriter writes JSON responses for one request.
type ResponseWriter struct {
	w http.ResponseWriter
	r *http.Request
}

// NewResponseWriter creates a new response writer.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r}
}

// JSON encodes v as the whole response body.
func (rw *ResponseWriter) JSON(statusCode int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		rw.InternalError("Failed to encode response")
		return
	}
	rw.Raw(statusCode, data)
}

// Raw writes an already-encoded JSON body, used for passthrough endpoints.
func (rw *ResponseWriter) Raw(statusCode int, body []byte) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(statusCode)
	if _, err := rw.w.Write(body); err != nil {
		logging.Ctx(rw.r.Context()).Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// Error writes an error response with the given status code.
func (rw *ResponseWriter) Error(statusCode int, code, message string) {
	rw.ErrorWithDetails(statusCode, code, message, nil)
}

// ErrorWithDetails writes an error response with additional details.
func (rw *ResponseWriter) ErrorWithDetails(statusCode int, code, message string, details interface{}) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: logging.RequestIDFromContext(rw.r.Context()),
		},
	}

	data, err := json.Marshal(response)
	if err != nil {
		// Details is the only field that can fail to encode
		response.Error.Details = nil
		data, _ = json.Marshal(response)
	}
	rw.Raw(statusCode, data)
}

// NotFound writes a 404 Not Found error.
func (rw *ResponseWriter) NotFound(message string) {
	rw.Error(http.StatusNotFound, ErrCodeNotFound, message)
}

// TooManyRequests writes a 429 error.
func (rw *ResponseWriter) TooManyRequests(message string) {
	rw.Error(http.StatusTooManyRequests, ErrCodeRateLimitExceeded, message)
}

// InternalError writes a 500 Internal Server Error.
func (rw *ResponseWriter) InternalError(message string) {
	rw.Error(http.StatusInternalServerError, ErrCodeInternalError, message)
}

// UpstreamError logs err and writes the classified failure for it.
func (rw *ResponseWriter) UpstreamError(err error, what string) {
	ctx := rw.r.Context()
	failure := classifyUpstream(err, what)

	event := logging.Ctx(ctx).Error()
	if clientGone(ctx, err) {
		event = logging.Ctx(ctx).Debug()
	}
	event.Err(err).
		Str("path", rw.r.URL.Path).
		Str("code", failure.code).
		Msg("Upstream request failed")

	rw.Error(failure.status, failure.code, failure.message)
}

// WriteError is a convenience function for writing error responses.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	NewResponseWriter(w, r).Error(statusCode, code, message)
}

// WriteNotFound is a convenience function for 404 errors.
func WriteNotFound(w http.ResponseWriter, r *http.Request, message string) {
	NewResponseWriter(w, r).NotFound(message)
}
