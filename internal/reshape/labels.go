// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package reshape

import (
	"context"

	"github.com/tidwall/gjson"
)

// LabelCounts maps labels to summed counts, remembering first-seen order.
// The zero value is ready to use.
type LabelCounts struct {
	order  []string
	counts map[string]float64
}

// Add sums n into label.
func (l *LabelCounts) Add(label string, n float64) {
	if l.counts == nil {
		l.counts = make(map[string]float64)
	}
	if _, seen := l.counts[label]; !seen {
		l.order = append(l.order, label)
	}
	l.counts[label] += n
}

// Get returns label's total.
func (l *LabelCounts) Get(label string) (float64, bool) {
	n, ok := l.counts[label]
	return n, ok
}

// Labels returns labels in first-seen order.
func (l *LabelCounts) Labels() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Len is the number of distinct labels.
func (l *LabelCounts) Len() int {
	return len(l.order)
}

// MarshalJSON renders {"label": total, ...} in first-seen order.
func (l *LabelCounts) MarshalJSON() ([]byte, error) {
	fields := make([]field, len(l.order))
	for i, label := range l.order {
		fields[i] = field{key: label, value: l.counts[label]}
	}
	return marshalOrdered(fields)
}

// LabelOptions tunes AggregateLabels.
type LabelOptions struct {
	// Component names the caller in warnings and metrics.
	Component string

	// CountField is the row field summed per label, e.g. "nb_visits".
	CountField string

	// Exclude drops rows with these labels before aggregation.
	Exclude []string

	// RequireCount skips rows without a numeric count instead of counting
	// them as zero.
	RequireCount bool
}

// AggregateLabels sums CountField per label over an array of report rows.
// Rows without a label are skipped with a warning. A payload that is not an
// array fails with ErrBadShape.
func AggregateLabels(ctx context.Context, body []byte, opts LabelOptions) (*LabelCounts, error) {
	rows, err := parseArray(ctx, opts.Component, body)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, e := range opts.Exclude {
		excluded[e] = struct{}{}
	}

	out := &LabelCounts{}
	rows.ForEach(func(_, row gjson.Result) bool {
		name, ok := label(row.Get("label"))
		if !ok {
			warnRow(ctx, opts.Component, reasonMissingLabel, row)
			return true
		}
		if _, skip := excluded[name]; skip {
			warnRow(ctx, opts.Component, reasonExcluded, row)
			return true
		}

		n, ok := number(row.Get(opts.CountField))
		if !ok {
			warnRow(ctx, opts.Component, reasonMissingCount, row)
			if opts.RequireCount {
				return true
			}
		}
		out.Add(name, n)
		return true
	})
	return out, nil
}

// VisitsByLabel sums nb_visits per label, the touched and language shape.
func VisitsByLabel(ctx context.Context, component string, body []byte) (*LabelCounts, error) {
	return AggregateLabels(ctx, body, LabelOptions{
		Component:  component,
		CountField: "nb_visits",
	})
}

// InitializedVisits is VisitsByLabel without platform marker labels. Rows
// lacking nb_visits are skipped rather than counted as zero.
func InitializedVisits(ctx context.Context, body []byte) (*LabelCounts, error) {
	return AggregateLabels(ctx, body, LabelOptions{
		Component:    "initialized",
		CountField:   "nb_visits",
		Exclude:      InitializedExcludedLabels,
		RequireCount: true,
	})
}
