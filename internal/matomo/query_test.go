// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package matomo

import (
	"strings"
	"testing"
)

func TestQueryValues(t *testing.T) {
	q := NewQuery("Events.getName").
		Site("16").
		Period(PeriodRange).
		Dates(DateRange{Start: "2026-03-01", End: "2026-03-07"}).
		SegmentEquals("eventAction", "from->to")

	v := q.Values("secret-token")

	want := map[string]string{
		"module":     "API",
		"method":     "Events.getName",
		"format":     "JSON",
		"idSite":     "16",
		"period":     "range",
		"date":       "2026-03-01,2026-03-07",
		"segment":    "eventAction==from-%3Eto",
		"token_auth": "secret-token",
	}
	for key, val := range want {
		if got := v.Get(key); got != val {
			t.Errorf("%s = %q, want %q", key, got, val)
		}
	}

	// The segment value is encoded twice on the wire
	if enc := v.Encode(); !strings.Contains(enc, "segment=eventAction%3D%3Dfrom-%253Eto") {
		t.Errorf("Encode() = %q, want double-encoded segment", enc)
	}
}

func TestQueryOmitsEmptyParams(t *testing.T) {
	v := NewQuery("SitesManager.getSitesWithAtLeastViewAccess").
		Site("").
		Period("").
		Date("").
		Values("tok")

	for _, key := range []string{"idSite", "period", "date", "segment"} {
		if v.Has(key) {
			t.Errorf("%s should be omitted, got %q", key, v.Get(key))
		}
	}
	if v.Get("method") != "SitesManager.getSitesWithAtLeastViewAccess" {
		t.Errorf("method = %q", v.Get("method"))
	}
}

func TestQueryKey(t *testing.T) {
	a := NewQuery("VisitsSummary.get").Site("16").Period(PeriodRange).Date("2026-03-01,2026-03-07")
	b := NewQuery("VisitsSummary.get").Date("2026-03-01,2026-03-07").Period(PeriodRange).Site("16")

	if a.Key() != b.Key() {
		t.Errorf("Key() depends on setter order: %q vs %q", a.Key(), b.Key())
	}
	if want := "VisitsSummary.get&date=2026-03-01,2026-03-07&idSite=16&period=range"; a.Key() != want {
		t.Errorf("Key() = %q, want %q", a.Key(), want)
	}
	if strings.Contains(a.Key(), "token_auth") {
		t.Error("Key() must not contain the credential")
	}
}

func TestQueryParamOverride(t *testing.T) {
	v := NewQuery("Live.getLastVisitsDetails").
		Param("filter_limit", "-1").
		Param("filter_limit", "100").
		Values("")

	if got := v.Get("filter_limit"); got != "100" {
		t.Errorf("filter_limit = %q, want last write", got)
	}
	if v.Has("token_auth") {
		t.Error("empty token should not be sent")
	}
}
