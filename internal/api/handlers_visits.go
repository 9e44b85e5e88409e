// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package api

import (
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/matomo-relay/internal/matomo"
	"github.com/tomtom215/matomo-relay/internal/reshape"
)

const (
	methodVisitsSummaryGet = "VisitsSummary.get"
	methodDevicesGetType   = "DevicesDetection.getType"
	methodDevicesGetOS     = "DevicesDetection.getOsFamilies"
	methodLanguageGetCode  = "UserLanguage.getLanguageCode"
	methodGetCampaigns     = "Referrers.getCampaigns"
)

// UserStatistics combines the visits summary with the device breakdown.
// Both upstream calls run concurrently; either failing fails the request.
func (h *Handler) UserStatistics(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseReportQuery(w, r)
	if !ok {
		return
	}

	var summary, devices []byte
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		body, err := h.fetcher.Fetch(ctx, h.rangeQuery(methodVisitsSummaryGet, q))
		summary = body
		return err
	})
	g.Go(func() error {
		body, err := h.fetcher.Fetch(ctx, h.rangeQuery(methodDevicesGetType, q))
		devices = body
		return err
	})
	if err := g.Wait(); err != nil {
		NewResponseWriter(w, r).UpstreamError(err, "user statistics")
		return
	}

	stats, err := reshape.Statistics(r.Context(), summary, devices)
	if err != nil {
		NewResponseWriter(w, r).UpstreamError(err, "user statistics")
		return
	}
	NewResponseWriter(w, r).JSON(http.StatusOK, stats)
}

// ExportUniqueVisitors relays the visits summary for export.
func (h *Handler) ExportUniqueVisitors(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseReportQuery(w, r)
	if !ok {
		return
	}
	h.passthrough(w, r, h.rangeQuery(methodVisitsSummaryGet, q), "unique visitors")
}

// OSDistribution returns [{osFamily, visits}].
func (h *Handler) OSDistribution(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseReportQuery(w, r)
	if !ok {
		return
	}

	body, ok := h.fetch(w, r, h.rangeQuery(methodDevicesGetOS, q), "operating system distribution")
	if !ok {
		return
	}

	shares, err := reshape.OSDistribution(r.Context(), body)
	if err != nil {
		NewResponseWriter(w, r).UpstreamError(err, "operating system distribution")
		return
	}
	NewResponseWriter(w, r).JSON(http.StatusOK, shares)
}

// UserLanguageDistribution returns {languageCode: visits}.
func (h *Handler) UserLanguageDistribution(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseReportQuery(w, r)
	if !ok {
		return
	}

	body, ok := h.fetch(w, r, h.rangeQuery(methodLanguageGetCode, q), "language distribution")
	if !ok {
		return
	}

	counts, err := reshape.VisitsByLabel(r.Context(), "language", body)
	if err != nil {
		NewResponseWriter(w, r).UpstreamError(err, "language distribution")
		return
	}
	NewResponseWriter(w, r).JSON(http.StatusOK, counts)
}

// Campaigns relays referrer campaigns. siteId is required here; each
// missing or malformed date defaults on its own.
func (h *Handler) Campaigns(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q := campaignsQuery{
		SiteID:    strings.TrimSpace(values.Get("siteId")),
		StartDate: values.Get("startDate"),
		EndDate:   values.Get("endDate"),
	}
	if !validateRequest(w, r, &q) {
		return
	}

	query := matomo.NewQuery(methodGetCampaigns).
		Site(q.SiteID).
		Period(matomo.PeriodRange).
		Dates(h.resolver.ResolveEach(q.StartDate, q.EndDate))
	h.passthrough(w, r, query, "campaigns")
}
