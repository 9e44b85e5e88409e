// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package api

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/matomo-relay/internal/config"
	"github.com/tomtom215/matomo-relay/internal/logging"
	"github.com/tomtom215/matomo-relay/internal/matomo"
	"github.com/tomtom215/matomo-relay/internal/reshape"
)

const (
	methodVisitTimePerServerTime = "VisitTime.getVisitInformationPerServerTime"
	methodLiveLastVisits         = "Live.getLastVisitsDetails"
)

// maxAverageDays caps the per-day fan-out of average mode.
const maxAverageDays = 92

// hourlyMessageFailed is the message of every hourly failure body.
const hourlyMessageFailed = "Failed to fetch data"

// HourlyVisitsResponse is the /api/hourly-visits success body.
type HourlyVisitsResponse struct {
	Success      bool                  `json:"success"`
	StartDate    string                `json:"startDate"`
	EndDate      string                `json:"endDate"`
	HourlyVisits reshape.HourlyBuckets `json:"hourlyVisits"`
}

// hourlyFailure is the hourly endpoint's own error body.
type hourlyFailure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// HourlyVisits returns 24 hourly visit counts. Dates default to today.
//
// In last_write mode the range report is copied hour by hour. In average
// mode raw visits are fetched one day at a time, at most
// hourly.max_parallel concurrently, and the per-day buckets are averaged.
func (h *Handler) HourlyVisits(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseReportQuery(w, r)
	if !ok {
		return
	}
	dates := h.resolver.ResolveToday(q.StartDate, q.EndDate)

	var (
		buckets reshape.HourlyBuckets
		err     error
	)
	if h.config.Hourly.Mode == config.HourlyModeAverage {
		if n := dates.DayCount(); n > maxAverageDays {
			h.hourlyError(w, r, http.StatusBadRequest,
				fmt.Errorf("range spans %d days, at most %d allowed", n, maxAverageDays))
			return
		}
		buckets, err = h.averageHourly(r.Context(), q.SiteID, dates)
	} else {
		buckets, err = h.lastWriteHourly(r.Context(), q.SiteID, dates)
	}
	if err != nil {
		h.hourlyError(w, r, http.StatusInternalServerError, err)
		return
	}

	NewResponseWriter(w, r).JSON(http.StatusOK, HourlyVisitsResponse{
		Success:      true,
		StartDate:    dates.Start,
		EndDate:      dates.End,
		HourlyVisits: buckets,
	})
}

func (h *Handler) lastWriteHourly(ctx context.Context, siteID string, dates matomo.DateRange) (reshape.HourlyBuckets, error) {
	query := matomo.NewQuery(methodVisitTimePerServerTime).
		Site(siteID).
		Period(matomo.PeriodRange).
		Dates(dates)

	body, err := h.fetcher.Fetch(ctx, query)
	if err != nil {
		return reshape.HourlyBuckets{}, err
	}
	return reshape.HourlyFromReport(ctx, body)
}

// averageHourly fans out one Live call per day. Results are combined only
// after every day succeeds; the first failure cancels the rest.
func (h *Handler) averageHourly(ctx context.Context, siteID string, dates matomo.DateRange) (reshape.HourlyBuckets, error) {
	days := dates.Days()
	if len(days) == 0 {
		// last_write forwards such a range as is; here there is no day to fetch
		logging.Ctx(ctx).Warn().
			Str("start_date", dates.Start).
			Str("end_date", dates.End).
			Msg("Hourly range ends before it starts, returning empty buckets")
		return reshape.HourlyBuckets{}, nil
	}
	perDay := make([]reshape.HourlyBuckets, len(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.Hourly.MaxParallel)
	for i, day := range days {
		g.Go(func() error {
			query := matomo.NewQuery(methodLiveLastVisits).
				Site(siteID).
				Period(matomo.PeriodDay).
				Date(day).
				Param("filter_limit", "-1").
				Param("doNotFetchActions", "1")

			body, err := h.fetcher.Fetch(gctx, query)
			if err != nil {
				return fmt.Errorf("day %s: %w", day, err)
			}
			buckets, err := reshape.HourlyFromVisits(gctx, body, h.resolver.Location())
			if err != nil {
				return fmt.Errorf("day %s: %w", day, err)
			}
			perDay[i] = buckets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reshape.HourlyBuckets{}, err
	}

	logging.Ctx(ctx).Debug().Int("days", len(days)).Msg("Averaged hourly visits")
	return reshape.AverageHourly(perDay), nil
}

func (h *Handler) hourlyError(w http.ResponseWriter, r *http.Request, status int, err error) {
	event := logging.Ctx(r.Context()).Error()
	if clientGone(r.Context(), err) {
		event = logging.Ctx(r.Context()).Debug()
	}
	event.Err(err).Int("status", status).Msg("Hourly visits request failed")

	NewResponseWriter(w, r).JSON(status, hourlyFailure{
		Success: false,
		Message: hourlyMessageFailed,
		Error:   err.Error(),
	})
}
