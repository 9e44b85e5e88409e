// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package matomo

import (
	"net/url"
	"sort"
	"strings"
)

// Reporting periods understood by the Matomo API.
const (
	PeriodRange = "range"
	PeriodDay   = "day"
)

// Query is a Matomo Reporting API call under construction.
// Setters skip empty values so optional parameters vanish from the URL.
type Query struct {
	method string
	params map[string]string
}

// NewQuery starts a query for a Matomo API method such as "Events.getName".
func NewQuery(method string) *Query {
	return &Query{
		method: method,
		params: make(map[string]string),
	}
}

// Method returns the Matomo API method name.
func (q *Query) Method() string {
	return q.method
}

// Param sets an arbitrary parameter, ignoring empty values.
func (q *Query) Param(key, value string) *Query {
	if value != "" {
		q.params[key] = value
	}
	return q
}

// Site sets idSite.
func (q *Query) Site(siteID string) *Query {
	return q.Param("idSite", siteID)
}

// Period sets period (range, day).
func (q *Query) Period(period string) *Query {
	return q.Param("period", period)
}

// Dates sets date to "start,end".
func (q *Query) Dates(r DateRange) *Query {
	return q.Param("date", r.String())
}

// Date sets date verbatim, e.g. a single "2026-03-01".
func (q *Query) Date(date string) *Query {
	return q.Param("date", date)
}

// SegmentEquals restricts the report to rows where dimension equals value.
// Segment values are URL-encoded inside the segment expression, so
// "from->to" is sent as eventAction==from-%3Eto before the outer encoding.
func (q *Query) SegmentEquals(dimension, value string) *Query {
	return q.Param("segment", dimension+"=="+url.QueryEscape(value))
}

// Values renders the full parameter set including the fixed module, format
// and credential parameters.
func (q *Query) Values(token string) url.Values {
	v := url.Values{}
	v.Set("module", "API")
	v.Set("method", q.method)
	v.Set("format", "JSON")
	for key, value := range q.params {
		v.Set(key, value)
	}
	if token != "" {
		v.Set("token_auth", token)
	}
	return v
}

// Key returns a stable identifier for the query without the credential,
// suitable for cache keys and log fields.
func (q *Query) Key() string {
	keys := make([]string, 0, len(q.params))
	for k := range q.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(q.method)
	for _, k := range keys {
		b.WriteByte('&')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(q.params[k])
	}
	return b.String()
}
