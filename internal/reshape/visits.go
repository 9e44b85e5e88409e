// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package reshape

import (
	"context"

	"github.com/tidwall/gjson"
)

// UserStatistics is the visitor overview tile.
type UserStatistics struct {
	TotalVisits           float64 `json:"totalVisits"`
	BounceRate            string  `json:"bounceRate"`
	MostVisitedDeviceType string  `json:"mostVisitedDeviceType"`
	AvgTimeOnPage         float64 `json:"avgTimeOnPage"`
}

// Statistics combines a VisitsSummary.get object with DevicesDetection.getType
// rows. Matomo formats bounce_rate as a percentage string ("48%"), which is
// passed through as text. The device type with the most visits wins, the
// last seen on ties; no devices yields "".
//
// Matomo answers VisitsSummary.get with [] when a range has no data; that is
// treated as an all-zero summary.
func Statistics(ctx context.Context, summaryBody, devicesBody []byte) (UserStatistics, error) {
	const component = "user_statistics"

	var out UserStatistics

	summary := gjson.ParseBytes(summaryBody)
	switch {
	case summary.IsObject():
	case summary.IsArray() && len(summary.Array()) == 0:
		warnRow(ctx, component, reasonEmptyObject, summary)
	default:
		return out, badShape(ctx, component, "object", summaryBody)
	}

	if n, ok := number(summary.Get("nb_visits")); ok {
		out.TotalVisits = n
	} else if summary.IsObject() {
		warnRow(ctx, component, reasonMissingCount, summary)
	}
	if br := summary.Get("bounce_rate"); br.Exists() {
		out.BounceRate = br.String()
	}
	out.AvgTimeOnPage, _ = number(summary.Get("avg_time_on_site"))

	devices, err := AggregateLabels(ctx, devicesBody, LabelOptions{
		Component:  component,
		CountField: "nb_visits",
	})
	if err != nil {
		return out, err
	}
	out.MostVisitedDeviceType = topLabel(devices)
	return out, nil
}

// topLabel returns the label with the highest count. On a tie the label
// seen later wins, which is what the dashboard has always shown.
func topLabel(l *LabelCounts) string {
	best, bestN := "", 0.0
	for i, name := range l.order {
		n := l.counts[name]
		if i == 0 || n >= bestN {
			best, bestN = name, n
		}
	}
	return best
}

// OSShare is one operating system family's visit count.
type OSShare struct {
	OSFamily string  `json:"osFamily"`
	Visits   float64 `json:"visits"`
}

// OSDistribution maps DevicesDetection.getOsFamilies rows to OSShare in
// upstream order. Rows without a label are skipped.
func OSDistribution(ctx context.Context, body []byte) ([]OSShare, error) {
	const component = "os_distribution"

	rows, err := parseArray(ctx, component, body)
	if err != nil {
		return nil, err
	}

	out := []OSShare{}
	rows.ForEach(func(_, row gjson.Result) bool {
		name, ok := label(row.Get("label"))
		if !ok {
			warnRow(ctx, component, reasonMissingLabel, row)
			return true
		}
		n, ok := number(row.Get("nb_visits"))
		if !ok {
			warnRow(ctx, component, reasonMissingCount, row)
		}
		out = append(out, OSShare{OSFamily: name, Visits: n})
		return true
	})
	return out, nil
}
