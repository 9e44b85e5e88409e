// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/matomo-relay/internal/matomo"
	"github.com/tomtom215/matomo-relay/internal/reshape"
)

// Matomo Reporting API methods used by the event endpoints.
const (
	methodEventsGetName     = "Events.getName"
	methodEventsGetAction   = "Events.getAction"
	methodVisitsGetActions  = "VisitsSummary.getActions"
	segmentEventActionField = "eventAction"
)

// eventNamesQuery is Events.getName restricted to one event action.
func (h *Handler) eventNamesQuery(action string, q reportQuery) *matomo.Query {
	return h.rangeQuery(methodEventsGetName, q).SegmentEquals(segmentEventActionField, action)
}

// EventsFromToNames relays event names recorded under the from->to action.
func (h *Handler) EventsFromToNames(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseReportQuery(w, r)
	if !ok {
		return
	}
	h.passthrough(w, r, h.eventNamesQuery(reshape.ActionFromTo, q), "from->to event names")
}

// EventsSummaryCounts returns per-action event totals.
func (h *Handler) EventsSummaryCounts(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseReportQuery(w, r)
	if !ok {
		return
	}

	body, ok := h.fetch(w, r, h.rangeQuery(methodEventsGetAction, q), "event summary")
	if !ok {
		return
	}

	counts, err := reshape.EventSummary(r.Context(), body)
	if err != nil {
		NewResponseWriter(w, r).UpstreamError(err, "event summary")
		return
	}
	NewResponseWriter(w, r).JSON(http.StatusOK, counts)
}

// EventsSearched relays search event names.
func (h *Handler) EventsSearched(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseReportQuery(w, r)
	if !ok {
		return
	}
	h.passthrough(w, r, h.eventNamesQuery(reshape.ActionSearched, q), "searched events")
}

// EventsSearchedDaily returns per-day search term totals.
func (h *Handler) EventsSearchedDaily(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseReportQuery(w, r)
	if !ok {
		return
	}

	query := h.eventNamesQuery(reshape.ActionSearched, q).Period(matomo.PeriodDay)
	body, ok := h.fetch(w, r, query, "daily searched events")
	if !ok {
		return
	}

	daily, err := reshape.DailySearched(r.Context(), body)
	if err != nil {
		NewResponseWriter(w, r).UpstreamError(err, "daily searched events")
		return
	}
	NewResponseWriter(w, r).JSON(http.StatusOK, daily)
}

// EventsTouched returns {label: nb_visits} for touched events.
func (h *Handler) EventsTouched(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseReportQuery(w, r)
	if !ok {
		return
	}

	body, ok := h.fetch(w, r, h.eventNamesQuery(reshape.ActionTouched, q), "touched events")
	if !ok {
		return
	}

	counts, err := reshape.VisitsByLabel(r.Context(), "touched", body)
	if err != nil {
		NewResponseWriter(w, r).UpstreamError(err, "touched events")
		return
	}
	NewResponseWriter(w, r).JSON(http.StatusOK, counts)
}

// EventsInitialized returns {kiosk: nb_visits} for initialized events,
// without platform marker labels.
func (h *Handler) EventsInitialized(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseReportQuery(w, r)
	if !ok {
		return
	}

	body, ok := h.fetch(w, r, h.eventNamesQuery(reshape.ActionInitialized, q), "initialized events")
	if !ok {
		return
	}

	counts, err := reshape.InitializedVisits(r.Context(), body)
	if err != nil {
		NewResponseWriter(w, r).UpstreamError(err, "initialized events")
		return
	}
	NewResponseWriter(w, r).JSON(http.StatusOK, counts)
}

// EventsDailyCount returns per-day action totals. Besides startDate and
// endDate it accepts date=YYYY-MM-DD,YYYY-MM-DD.
func (h *Handler) EventsDailyCount(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseReportQuery(w, r)
	if !ok {
		return
	}

	dates := h.resolver.ResolveCombined(q.StartDate, q.EndDate, strings.TrimSpace(r.URL.Query().Get("date")))
	query := matomo.NewQuery(methodVisitsGetActions).
		Site(q.SiteID).
		Period(matomo.PeriodDay).
		Dates(dates)

	body, ok := h.fetch(w, r, query, "daily action counts")
	if !ok {
		return
	}

	counts, err := reshape.DailyCounts(r.Context(), body)
	if err != nil {
		NewResponseWriter(w, r).UpstreamError(err, "daily action counts")
		return
	}
	NewResponseWriter(w, r).JSON(http.StatusOK, counts)
}
