// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/matomo-relay/internal/config"
	"github.com/tomtom215/matomo-relay/internal/matomo"
)

// fixedNow is the wall clock every handler test runs at.
var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// fakeFetcher answers upstream queries from canned bodies keyed by method
// and records every query it receives.
type fakeFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	errs    map[string]error
	respond func(q *matomo.Query) ([]byte, error)
	queries []*matomo.Query
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bodies: make(map[string]string),
		errs:   make(map[string]error),
	}
}

func (f *fakeFetcher) on(method, body string) *fakeFetcher {
	f.bodies[method] = body
	return f
}

func (f *fakeFetcher) fail(method string, err error) *fakeFetcher {
	f.errs[method] = err
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, q *matomo.Query) ([]byte, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	respond := f.respond
	body, hasBody := f.bodies[q.Method()]
	err := f.errs[q.Method()]
	f.mu.Unlock()

	if respond != nil {
		return respond(q)
	}
	if err != nil {
		return nil, err
	}
	if !hasBody {
		return []byte(`[]`), nil
	}
	return []byte(body), nil
}

// params returns the recorded parameters of every call to method.
func (f *fakeFetcher) params(method string) []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []url.Values
	for _, q := range f.queries {
		if q.Method() == method {
			out = append(out, q.Values(""))
		}
	}
	return out
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeBreaker string

func (b fakeBreaker) State() string { return string(b) }

func testConfig() *config.Config {
	return &config.Config{
		Matomo: config.MatomoConfig{
			URL:           "https://matomo.test",
			Token:         "0123456789abcdef",
			DefaultSiteID: "16",
			Timezone:      "UTC",
		},
		Hourly: config.HourlyConfig{
			Mode:        config.HourlyModeLastWrite,
			MaxParallel: 4,
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"https://dashboard.test"},
			AllowUnlisted:  true,
		},
		RateLimit: config.RateLimitConfig{
			Requests: 300,
			Window:   time.Minute,
			Disabled: true,
		},
		Categories: config.DefaultCategories(),
	}
}

func newTestHandler(cfg *config.Config, f matomo.Fetcher) *Handler {
	clock := matomo.ClockFunc(func() time.Time { return fixedNow })
	return NewHandler(cfg, f, fakeBreaker("closed"), clock)
}

// serve routes one GET through the full router.
func serve(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(h, NewChiMiddlewareFromConfig(h.config)).SetupChi()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decodeEnvelope parses an error envelope.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if resp.Error == nil {
		t.Fatalf("envelope has no error object: %s", rec.Body.String())
	}
	return resp
}
