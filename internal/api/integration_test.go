// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/matomo-relay/internal/config"
	"github.com/tomtom215/matomo-relay/internal/matomo"
)

// fakeMatomoServer answers index.php by API method and records raw queries.
type fakeMatomoServer struct {
	mu      sync.Mutex
	replies map[string]string
	status  int
	queries []string
}

func (s *fakeMatomoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.queries = append(s.queries, r.URL.RawQuery)
	status := s.status
	reply, ok := s.replies[r.URL.Query().Get("method")]
	s.mu.Unlock()

	if r.URL.Path != "/index.php" {
		http.NotFound(w, r)
		return
	}
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("upstream down"))
		return
	}
	if !ok {
		reply = `[]`
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(reply))
}

func (s *fakeMatomoServer) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func newPipelineHandler(t *testing.T, fake *fakeMatomoServer) *Handler {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := testConfig()
	cfg.Matomo.URL = srv.URL
	cfg.CircuitBreaker = config.BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	}

	client := matomo.NewClientWithHTTP(cfg.Matomo, srv.Client())
	p := matomo.NewPipeline(cfg, client, nil)
	clock := matomo.ClockFunc(func() time.Time { return fixedNow })
	return NewHandler(cfg, p.Fetcher, p.Breaker, clock)
}

func TestEndToEndThroughMatomoClient(t *testing.T) {
	fake := &fakeMatomoServer{replies: map[string]string{
		methodEventsGetName: `[{"label":"lobby","nb_visits":4},{"label":"gate","nb_visits":1},{"label":"lobby","nb_visits":2}]`,
	}}
	h := newPipelineHandler(t, fake)

	rec := serve(t, h, "/api/events/touched?siteId=37&startDate=2026-03-01&endDate=2026-03-02")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got, want := rec.Body.String(), `{"lobby":6,"gate":1}`; got != want {
		t.Errorf("body = %s, want %s", got, want)
	}

	queries := fake.recorded()
	if len(queries) != 1 {
		t.Fatalf("upstream requests = %d, want 1", len(queries))
	}
	raw := queries[0]
	for _, part := range []string{
		"module=API",
		"method=Events.getName",
		"format=JSON",
		"idSite=37",
		"period=range",
		"date=2026-03-01%2C2026-03-02",
		"segment=eventAction%3D%3Dtouched",
		"token_auth=0123456789abcdef",
	} {
		if !strings.Contains(raw, part) {
			t.Errorf("upstream query %q missing %q", raw, part)
		}
	}
}

func TestEndToEndInBandErrorAndOutage(t *testing.T) {
	fake := &fakeMatomoServer{replies: map[string]string{
		methodSitesWithViewAccess: `{"result":"error","message":"You can't access this resource"}`,
	}}
	h := newPipelineHandler(t, fake)

	rec := serve(t, h, "/api/sites")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp.Error.Code != ErrCodeUpstream {
		t.Errorf("code = %q, want %q", resp.Error.Code, ErrCodeUpstream)
	}
	if strings.Contains(rec.Body.String(), "0123456789abcdef") {
		t.Error("response leaks the Matomo token")
	}

	// Consecutive outages trip the breaker and readiness degrades
	fake.mu.Lock()
	fake.status = http.StatusBadGateway
	fake.mu.Unlock()
	for i := 0; i < 3; i++ {
		serve(t, h, "/api/sites")
	}

	rec = serve(t, h, "/health/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness status = %d, want 503 with the circuit open", rec.Code)
	}
}
