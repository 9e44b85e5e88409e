// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package reshape

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// HoursPerDay is the fixed bucket count.
const HoursPerDay = 24

// HourlyBuckets holds one value per hour of day, 0-23. Being an array, it
// always encodes as exactly 24 numbers.
type HourlyBuckets [HoursPerDay]float64

const (
	componentHourly      = "hourly"
	componentHourlyVisit = "hourly_visits"
)

// HourlyFromReport copies VisitTime.getVisitInformationPerServerTime rows
// into buckets. Each row's "label" is the hour and "nb_visits" its count.
// A repeated hour overwrites the earlier value. Labels that are not whole
// numbers in 0-23 are skipped with a warning; a missing count writes 0.
func HourlyFromReport(ctx context.Context, body []byte) (HourlyBuckets, error) {
	var out HourlyBuckets

	rows, err := parseArray(ctx, componentHourly, body)
	if err != nil {
		return out, err
	}

	rows.ForEach(func(_, row gjson.Result) bool {
		hour, ok := hourLabel(row.Get("label"))
		if !ok {
			warnRow(ctx, componentHourly, reasonHourRange, row)
			return true
		}
		n, ok := number(row.Get("nb_visits"))
		if !ok {
			warnRow(ctx, componentHourly, reasonMissingCount, row)
		}
		out[hour] = n
		return true
	})
	return out, nil
}

// hourLabel accepts "9", 9, and Matomo's localized "9h" form.
func hourLabel(r gjson.Result) (int, bool) {
	if r.Type == gjson.String {
		s := strings.TrimSuffix(strings.TrimSpace(r.Str), "h")
		h, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return h, h >= 0 && h < HoursPerDay
	}
	h, ok := integer(r)
	return h, ok && h >= 0 && h < HoursPerDay
}

// HourlyFromVisits buckets one day's Live.getLastVisitsDetails rows by the
// local hour of each visit's first action. Rows without
// firstActionTimestamp fall back to serverTimestamp; rows with neither are
// skipped with a warning.
func HourlyFromVisits(ctx context.Context, body []byte, loc *time.Location) (HourlyBuckets, error) {
	var out HourlyBuckets

	rows, err := parseArray(ctx, componentHourlyVisit, body)
	if err != nil {
		return out, err
	}
	if loc == nil {
		loc = time.UTC
	}

	rows.ForEach(func(_, row gjson.Result) bool {
		ts, ok := number(row.Get("firstActionTimestamp"))
		if !ok {
			ts, ok = number(row.Get("serverTimestamp"))
		}
		if !ok || ts <= 0 {
			warnRow(ctx, componentHourlyVisit, reasonTimestamp, row)
			return true
		}
		out[time.Unix(int64(ts), 0).In(loc).Hour()]++
		return true
	})
	return out, nil
}

// AverageHourly sums per-day buckets slot-wise and divides by the number of
// days. No days yields all zeros.
func AverageHourly(days []HourlyBuckets) HourlyBuckets {
	var out HourlyBuckets
	if len(days) == 0 {
		return out
	}
	for _, day := range days {
		for h, n := range day {
			out[h] += n
		}
	}
	for h := range out {
		out[h] /= float64(len(days))
	}
	return out
}
