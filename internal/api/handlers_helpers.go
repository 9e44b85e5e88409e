// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/matomo-relay/internal/matomo"
	"github.com/tomtom215/matomo-relay/internal/validation"
)

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
// This includes newlines, carriage returns, tabs, and other control characters that could
// allow attackers to forge log entries or corrupt log files.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// reportQuery is the query string shared by the range report endpoints.
// siteId falls back to the configured default; dates fall back to the last
// seven days.
type reportQuery struct {
	SiteID    string `query:"siteId" validate:"omitempty,siteid"`
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
}

// campaignsQuery requires an explicit siteId. Malformed dates default like
// missing ones.
type campaignsQuery struct {
	SiteID    string `query:"siteId" validate:"required,siteid"`
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
}

// parseReportQuery reads and validates the common parameters. On failure
// the 400 response has been written and ok is false.
func (h *Handler) parseReportQuery(w http.ResponseWriter, r *http.Request) (reportQuery, bool) {
	values := r.URL.Query()
	q := reportQuery{
		SiteID:    strings.TrimSpace(values.Get("siteId")),
		StartDate: values.Get("startDate"),
		EndDate:   values.Get("endDate"),
	}
	if q.SiteID == "" {
		q.SiteID = h.config.Matomo.DefaultSiteID
	}

	if !validateRequest(w, r, &q) {
		return q, false
	}
	return q, true
}

// validateRequest validates v and writes a VALIDATION_ERROR on failure.
func validateRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return true
	}
	apiErr := verr.ToAPIError()
	NewResponseWriter(w, r).ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
	return false
}

// rangeQuery builds a period=range call over the resolved dates.
func (h *Handler) rangeQuery(method string, q reportQuery) *matomo.Query {
	return matomo.NewQuery(method).
		Site(q.SiteID).
		Period(matomo.PeriodRange).
		Dates(h.resolver.Resolve(q.StartDate, q.EndDate))
}

// fetch runs one upstream call. On failure the classified error has been
// written and ok is false.
func (h *Handler) fetch(w http.ResponseWriter, r *http.Request, q *matomo.Query, what string) ([]byte, bool) {
	body, err := h.fetcher.Fetch(r.Context(), q)
	if err != nil {
		NewResponseWriter(w, r).UpstreamError(err, what)
		return nil, false
	}
	return body, true
}

// passthrough relays the upstream JSON unchanged.
func (h *Handler) passthrough(w http.ResponseWriter, r *http.Request, q *matomo.Query, what string) {
	body, ok := h.fetch(w, r, q, what)
	if !ok {
		return
	}
	NewResponseWriter(w, r).Raw(http.StatusOK, body)
}
