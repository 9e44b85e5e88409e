// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package reshape

import (
	"context"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Event action labels tracked by the kiosk frontend.
const (
	ActionFromTo      = "from->to"
	ActionSearched    = "searched"
	ActionTouched     = "touched"
	ActionInitialized = "initialized"
)

// InitializedExcludedLabels are platform markers, not kiosk names, that
// Matomo reports under the initialized action.
var InitializedExcludedLabels = []string{"web", "mobile-iOS", "mobile-Android"}

// SummaryCounts is the per-action event total for the summary tile.
type SummaryCounts struct {
	FromTo      float64 `json:"fromTo"`
	Searched    float64 `json:"searched"`
	Touched     float64 `json:"touched"`
	Initialized float64 `json:"initialized"`
	Total       float64 `json:"total"`
}

// EventSummary sums nb_events per known action over Events.getAction rows.
// Unknown actions are ignored; Total is the sum of the four known ones.
func EventSummary(ctx context.Context, body []byte) (SummaryCounts, error) {
	const component = "event_summary"

	var out SummaryCounts
	counts, err := AggregateLabels(ctx, body, LabelOptions{
		Component:  component,
		CountField: "nb_events",
	})
	if err != nil {
		return out, err
	}

	out.FromTo, _ = counts.Get(ActionFromTo)
	out.Searched, _ = counts.Get(ActionSearched)
	out.Touched, _ = counts.Get(ActionTouched)
	out.Initialized, _ = counts.Get(ActionInitialized)
	out.Total = out.FromTo + out.Searched + out.Touched + out.Initialized
	return out, nil
}

// LabelTotal is one aggregated event name within a day.
type LabelTotal struct {
	Label         string  `json:"label"`
	TotalNbEvents float64 `json:"total_nb_events"`
}

// DailyLabelTotals is {day: [LabelTotal...]} in upstream day order.
type DailyLabelTotals struct {
	days   []string
	totals map[string][]LabelTotal
}

// Days returns the days in upstream order.
func (d *DailyLabelTotals) Days() []string {
	out := make([]string, len(d.days))
	copy(out, d.days)
	return out
}

// Day returns the totals for one day.
func (d *DailyLabelTotals) Day(day string) []LabelTotal {
	return d.totals[day]
}

// MarshalJSON renders days in upstream order.
func (d *DailyLabelTotals) MarshalJSON() ([]byte, error) {
	fields := make([]field, len(d.days))
	for i, day := range d.days {
		fields[i] = field{key: day, value: d.totals[day]}
	}
	return marshalOrdered(fields)
}

// searchLabelKey extracts the searched term: event names are paths like
// "kiosk>term", and the segment after the first '>' is the term. Labels
// without one are used whole.
func searchLabelKey(label string) string {
	parts := strings.Split(label, ">")
	if len(parts) > 1 && parts[1] != "" {
		return parts[1]
	}
	return label
}

// DailySearched reshapes a period=day Events.getName reply, {day: [rows]},
// into per-day totals keyed by search term. The payload must be an object;
// a day whose value is not an array counts as empty with a warning.
func DailySearched(ctx context.Context, body []byte) (*DailyLabelTotals, error) {
	const component = "searched_daily"

	root, err := parseObject(ctx, component, body)
	if err != nil {
		return nil, err
	}

	out := &DailyLabelTotals{totals: make(map[string][]LabelTotal)}
	root.ForEach(func(dayKey, rows gjson.Result) bool {
		day := dayKey.String()
		if _, seen := out.totals[day]; !seen {
			out.days = append(out.days, day)
		}
		out.totals[day] = []LabelTotal{}

		if !rows.IsArray() {
			warnRow(ctx, component, reasonNotArray, rows)
			return true
		}

		counts := &LabelCounts{}
		rows.ForEach(func(_, row gjson.Result) bool {
			name, ok := label(row.Get("label"))
			if !ok {
				warnRow(ctx, component, reasonMissingLabel, row)
				return true
			}
			n, ok := number(row.Get("nb_events"))
			if !ok {
				warnRow(ctx, component, reasonMissingCount, row)
			}
			counts.Add(searchLabelKey(name), n)
			return true
		})

		for _, key := range counts.Labels() {
			n, _ := counts.Get(key)
			out.totals[day] = append(out.totals[day], LabelTotal{Label: key, TotalNbEvents: n})
		}
		return true
	})
	return out, nil
}

// DailyCount is one day's action total.
type DailyCount struct {
	Date        string  `json:"date"`
	TotalEvents float64 `json:"totalEvents"`
}

// DailyCounts turns a period=day VisitsSummary.getActions reply, {date: n},
// into a date-sorted list. Non-numeric values count as 0 with a warning.
func DailyCounts(ctx context.Context, body []byte) ([]DailyCount, error) {
	const component = "daily_count"

	root, err := parseObject(ctx, component, body)
	if err != nil {
		return nil, err
	}

	out := []DailyCount{}
	root.ForEach(func(date, value gjson.Result) bool {
		n, ok := number(value)
		if !ok && value.Type != gjson.Null {
			warnRow(ctx, component, reasonMissingCount, value)
		}
		out = append(out, DailyCount{Date: date.String(), TotalEvents: n})
		return true
	})

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
