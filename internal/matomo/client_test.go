// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package matomo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/matomo-relay/internal/config"
	"github.com/tomtom215/matomo-relay/internal/logging"
	"github.com/tomtom215/matomo-relay/internal/metrics"
)

const testToken = "0123456789abcdef0123456789abcdef"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(config.MatomoConfig{URL: srv.URL + "/", Token: testToken}, srv.Client())
}

func TestClientFetchSuccess(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"label":"searched","nb_events":"3"}]`))
	})

	q := NewQuery("Events.getAction").Site("16").Period(PeriodRange).Date("2026-03-01,2026-03-07")
	body, err := client.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if string(body) != `[{"label":"searched","nb_events":"3"}]` {
		t.Errorf("body = %s", body)
	}
	if gotPath != "/index.php" {
		t.Errorf("path = %q, want /index.php (trailing slash on base URL trimmed)", gotPath)
	}
	for key, want := range map[string]string{
		"module": "API", "method": "Events.getAction", "idSite": "16",
		"format": "JSON", "token_auth": testToken,
	} {
		if got := gotQuery[key]; len(got) != 1 || got[0] != want {
			t.Errorf("query %s = %v, want %q", key, got, want)
		}
	}
}

func TestClientFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		check   func(t *testing.T, err error)
	}{
		{
			name:    "non-2xx status",
			status:  http.StatusBadGateway,
			body:    "bad gateway",
			wantErr: ErrUpstream,
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway {
					t.Errorf("want *StatusError with 502, got %v", err)
				}
			},
		},
		{
			name:    "in-band error",
			status:  http.StatusOK,
			body:    `{"result":"error","message":"You can't access this resource as it requires 'view' access for the website id = 999."}`,
			wantErr: ErrUpstream,
			check: func(t *testing.T, err error) {
				var ae *APIError
				if !errors.As(err, &ae) || !strings.Contains(ae.Message, "website id = 999") {
					t.Errorf("want *APIError with Matomo message, got %v", err)
				}
			},
		},
		{
			name:    "in-band error without message",
			status:  http.StatusOK,
			body:    `{"result":"error"}`,
			wantErr: ErrUpstream,
		},
		{
			name:    "not json",
			status:  http.StatusOK,
			body:    "<html>Matomo is being upgraded</html>",
			wantErr: ErrBadShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Fetch(context.Background(), NewQuery("VisitsSummary.get"))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fetch() error = %v, want %v", err, tt.wantErr)
			}
			if strings.Contains(err.Error(), testToken) {
				t.Errorf("error leaks token: %v", err)
			}
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestClientObjectWithResultSuccessIsNotError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"success","value":1}`))
	})

	if _, err := client.Fetch(context.Background(), NewQuery("API.getMatomoVersion")); err != nil {
		t.Errorf("Fetch() error = %v, want nil", err)
	}
}

func TestClientTransportErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	client := NewClientWithHTTP(config.MatomoConfig{URL: base, Token: testToken}, &http.Client{})
	_, err := client.Fetch(context.Background(), NewQuery("VisitsSummary.get"))

	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("Fetch() error = %v, want ErrUpstream", err)
	}
	if strings.Contains(err.Error(), testToken) {
		t.Errorf("transport error leaks token: %v", err)
	}
	if want := "token_auth=" + logging.SanitizeToken(testToken); !strings.Contains(err.Error(), want) {
		t.Errorf("transport error = %v, want redacted URL containing %q", err, want)
	}
}

func TestClientCanceledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fetch(ctx, NewQuery("Live.getLastVisitsDetails"))
	if !errors.Is(err, ErrUpstream) || !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want ErrUpstream wrapping context.Canceled", err)
	}
}

func TestClientRecordsMetrics(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	c := metrics.UpstreamRequestsTotal.WithLabelValues("UserLanguage.getLanguageCode", outcomeOK)
	before := testutil.ToFloat64(c)

	if _, err := client.Fetch(context.Background(), NewQuery("UserLanguage.getLanguageCode")); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("matomo_requests_total{outcome=ok} delta = %v, want 1", got)
	}
}

func TestReadBodyForError(t *testing.T) {
	short := readBodyForError(strings.NewReader("oops"))
	if string(short) != "oops" {
		t.Errorf("readBodyForError(short) = %q", short)
	}

	long := readBodyForError(strings.NewReader(strings.Repeat("x", maxErrorBodySize+10)))
	if !strings.HasSuffix(string(long), "(truncated)") {
		t.Error("long body should be marked truncated")
	}
}
