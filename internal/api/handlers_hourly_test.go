// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/matomo-relay/internal/config"
	"github.com/tomtom215/matomo-relay/internal/logging"
	"github.com/tomtom215/matomo-relay/internal/matomo"
)

func decodeHourly(t *testing.T, body []byte) HourlyVisitsResponse {
	t.Helper()
	var resp HourlyVisitsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode hourly body: %v (%s)", err, body)
	}
	return resp
}

func TestHourlyVisitsLastWrite(t *testing.T) {
	f := newFakeFetcher().on(methodVisitTimePerServerTime,
		`[{"label":"9","nb_visits":4},{"label":"14","nb_visits":2}]`)
	h := newTestHandler(testConfig(), f)

	rec := serve(t, h, "/api/hourly-visits")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeHourly(t, rec.Body.Bytes())
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.StartDate != "2026-03-10" || resp.EndDate != "2026-03-10" {
		t.Errorf("range = %s..%s, want today", resp.StartDate, resp.EndDate)
	}
	for hour, n := range resp.HourlyVisits {
		want := 0.0
		switch hour {
		case 9:
			want = 4
		case 14:
			want = 2
		}
		if n != want {
			t.Errorf("hour %d = %v, want %v", hour, n, want)
		}
	}

	p := f.params(methodVisitTimePerServerTime)[0]
	if p.Get("period") != "range" || p.Get("date") != "2026-03-10,2026-03-10" {
		t.Errorf("query = %v", p)
	}
	if !strings.Contains(rec.Body.String(), `"hourlyVisits":[0,0,0,0,0,0,0,0,0,4,`) {
		t.Errorf("hourlyVisits not a 24-slot array: %s", rec.Body.String())
	}
}

func averageConfig(parallel int) *config.Config {
	cfg := testConfig()
	cfg.Hourly.Mode = config.HourlyModeAverage
	cfg.Hourly.MaxParallel = parallel
	cfg.Matomo.Timezone = "Europe/Istanbul"
	return cfg
}

// visitsAt renders a Live reply with one visit per timestamp.
func visitsAt(ts ...time.Time) []byte {
	rows := make([]string, len(ts))
	for i, t := range ts {
		rows[i] = fmt.Sprintf(`{"idVisit":%d,"firstActionTimestamp":%d}`, i+1, t.Unix())
	}
	return []byte("[" + strings.Join(rows, ",") + "]")
}

func TestHourlyVisitsAverage(t *testing.T) {
	f := newFakeFetcher()
	f.respond = func(q *matomo.Query) ([]byte, error) {
		switch q.Values("").Get("date") {
		case "2026-03-08":
			// 06:30 UTC is 09:30 in Istanbul
			return visitsAt(time.Date(2026, 3, 8, 6, 30, 0, 0, time.UTC)), nil
		case "2026-03-09":
			return visitsAt(
				time.Date(2026, 3, 9, 6, 5, 0, 0, time.UTC),
				time.Date(2026, 3, 9, 11, 0, 0, 0, time.UTC),
			), nil
		}
		return []byte(`[]`), nil
	}
	h := newTestHandler(averageConfig(2), f)

	rec := serve(t, h, "/api/hourly-visits?startDate=2026-03-08&endDate=2026-03-09")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeHourly(t, rec.Body.Bytes())
	if resp.HourlyVisits[9] != 1 {
		t.Errorf("hour 9 = %v, want 1 (two visits over two days)", resp.HourlyVisits[9])
	}
	if resp.HourlyVisits[14] != 0.5 {
		t.Errorf("hour 14 = %v, want 0.5", resp.HourlyVisits[14])
	}
	if resp.HourlyVisits[6] != 0 {
		t.Errorf("hour 6 = %v, want 0 (buckets use local time)", resp.HourlyVisits[6])
	}

	calls := f.params(methodLiveLastVisits)
	if len(calls) != 2 {
		t.Fatalf("Live calls = %d, want one per day", len(calls))
	}
	for _, p := range calls {
		if p.Get("period") != "day" || p.Get("filter_limit") != "-1" || p.Get("doNotFetchActions") != "1" {
			t.Errorf("per-day query = %v", p)
		}
	}
}

func TestHourlyVisitsAverageBoundsParallelism(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		peak     int
		total    atomic.Int32
	)
	f := newFakeFetcher()
	f.respond = func(*matomo.Query) ([]byte, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)
		total.Add(1)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return []byte(`[]`), nil
	}
	h := newTestHandler(averageConfig(3), f)

	rec := serve(t, h, "/api/hourly-visits?startDate=2026-03-01&endDate=2026-03-10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := total.Load(); got != 10 {
		t.Errorf("per-day calls = %d, want 10", got)
	}
	if peak > 3 {
		t.Errorf("peak concurrency = %d, want at most 3", peak)
	}
}

func TestHourlyVisitsAverageReversedRange(t *testing.T) {
	var buf bytes.Buffer
	previous := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.SetLogger(previous)

	f := newFakeFetcher()
	h := newTestHandler(averageConfig(2), f)

	rec := serve(t, h, "/api/hourly-visits?startDate=2026-03-09&endDate=2026-03-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeHourly(t, rec.Body.Bytes())
	if resp.StartDate != "2026-03-09" || resp.EndDate != "2026-03-01" {
		t.Errorf("range = %s..%s, want the request's dates echoed", resp.StartDate, resp.EndDate)
	}
	for hour, n := range resp.HourlyVisits {
		if n != 0 {
			t.Errorf("hour %d = %v, want 0", hour, n)
		}
	}
	if f.calls() != 0 {
		t.Errorf("upstream calls = %d, want none", f.calls())
	}
	if !strings.Contains(buf.String(), "ends before it starts") {
		t.Errorf("expected a reversed range warning, log: %s", buf.String())
	}
}

func TestHourlyVisitsAverageRejectsLongRange(t *testing.T) {
	f := newFakeFetcher()
	h := newTestHandler(averageConfig(4), f)

	rec := serve(t, h, "/api/hourly-visits?startDate=2025-01-01&endDate=2026-03-10")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if f.calls() != 0 {
		t.Errorf("upstream calls = %d, want none", f.calls())
	}

	var body hourlyFailure
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Message != "Failed to fetch data" || !strings.Contains(body.Error, "days") {
		t.Errorf("failure body = %+v", body)
	}
}

func TestHourlyVisitsFailureBody(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		fetcher func() *fakeFetcher
		query   string
		wantErr string
	}{
		{
			name: "last write upstream error",
			cfg:  testConfig(),
			fetcher: func() *fakeFetcher {
				return newFakeFetcher().fail(methodVisitTimePerServerTime,
					fmt.Errorf("%w: HTTP 500", matomo.ErrUpstream))
			},
			wantErr: "HTTP 500",
		},
		{
			name: "last write bad shape",
			cfg:  testConfig(),
			fetcher: func() *fakeFetcher {
				return newFakeFetcher().on(methodVisitTimePerServerTime, `{"label":"9"}`)
			},
			wantErr: "",
		},
		{
			name: "one failed day fails the request",
			cfg:  averageConfig(1),
			fetcher: func() *fakeFetcher {
				f := newFakeFetcher()
				f.respond = func(q *matomo.Query) ([]byte, error) {
					if q.Values("").Get("date") == "2026-03-09" {
						return nil, fmt.Errorf("%w: timeout", matomo.ErrUpstream)
					}
					return []byte(`[]`), nil
				}
				return f
			},
			query:   "?startDate=2026-03-08&endDate=2026-03-10",
			wantErr: "day 2026-03-09",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(tt.cfg, tt.fetcher())

			rec := serve(t, h, "/api/hourly-visits"+tt.query)
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500 (body %s)", rec.Code, rec.Body.String())
			}

			var body hourlyFailure
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success {
				t.Error("success = true")
			}
			if body.Message != "Failed to fetch data" {
				t.Errorf("message = %q", body.Message)
			}
			if body.Error == "" || !strings.Contains(body.Error, tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", body.Error, tt.wantErr)
			}
		})
	}
}
