// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package matomo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tomtom215/matomo-relay/internal/config"
	"github.com/tomtom215/matomo-relay/internal/logging"
	"github.com/tomtom215/matomo-relay/internal/metrics"
)

// maxErrorBodySize limits how much of a failed response is kept for the error
const maxErrorBodySize = 64 * 1024 // 64KB

// maxResponseSize bounds a successful report body. Live.getLastVisitsDetails
// with filter_limit=-1 is the largest reply we request.
const maxResponseSize = 64 << 20 // 64MB

// Upstream call outcomes recorded in matomo_requests_total.
const (
	outcomeOK        = "ok"
	outcomeTransport = "transport_error"
	outcomeStatus    = "http_error"
	outcomeAPIError  = "api_error"
	outcomeBadShape  = "bad_shape"
	outcomeCanceled  = "canceled"
)

// Fetcher executes a Matomo query and returns the raw JSON body.
// Client and BreakerClient implement it; handlers depend only on this.
type Fetcher interface {
	Fetch(ctx context.Context, q *Query) ([]byte, error)
}

// Client talks to a single Matomo instance's Reporting API.
//
// There is no client-side deadline: the inbound request context is the only
// cancellation signal, so a browser disconnect aborts the upstream call.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewClient creates a client for {cfg.URL}/index.php.
func NewClient(cfg config.MatomoConfig) *Client {
	return NewClientWithHTTP(cfg, &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 32,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	})
}

// NewClientWithHTTP creates a client using a caller-supplied http.Client.
func NewClientWithHTTP(cfg config.MatomoConfig, hc *http.Client) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.URL, "/") + "/index.php",
		token:    cfg.Token,
		http:     hc,
	}
}

// Fetch performs one GET against the Reporting API. The body is returned
// only when it is valid JSON and not an in-band error reply.
func (c *Client) Fetch(ctx context.Context, q *Query) ([]byte, error) {
	start := time.Now()
	body, outcome, err := c.do(ctx, q)
	metrics.RecordUpstreamCall(q.Method(), outcome, time.Since(start))

	log := logging.Ctx(ctx)
	if err != nil {
		log.Warn().
			Err(err).
			Str("method", q.Method()).
			Str("outcome", outcome).
			Dur("duration", time.Since(start)).
			Msg("Matomo request failed")
		return nil, err
	}

	log.Debug().
		Str("method", q.Method()).
		Str("query", q.Key()).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Matomo request completed")
	return body, nil
}

func (c *Client) do(ctx context.Context, q *Query) ([]byte, string, error) {
	reqURL := c.endpoint + "?" + q.Values(c.token).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, outcomeTransport, fmt.Errorf("%w: create %s request: %v", ErrUpstream, q.Method(), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, outcomeCanceled, fmt.Errorf("%w: %s: %w", ErrUpstream, q.Method(), ctx.Err())
		}
		// url.Error carries the full URL including token_auth
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = logging.SanitizeURL(uerr.URL)
		}
		return nil, outcomeTransport, fmt.Errorf("%w: %s: %v", ErrUpstream, q.Method(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, outcomeStatus, &StatusError{
			Method:     q.Method(),
			StatusCode: resp.StatusCode,
			Body:       string(readBodyForError(resp.Body)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, outcomeTransport, fmt.Errorf("%w: read %s response: %v", ErrUpstream, q.Method(), err)
	}
	if len(body) > maxResponseSize {
		return nil, outcomeBadShape, fmt.Errorf("%w: %s response exceeds %d bytes", ErrBadShape, q.Method(), maxResponseSize)
	}

	if !gjson.ValidBytes(body) {
		logging.Ctx(ctx).Error().
			Str("method", q.Method()).
			Str("payload", logging.TruncatePayload(body)).
			Msg("Matomo returned non-JSON body")
		return nil, outcomeBadShape, fmt.Errorf("%w: %s returned invalid JSON", ErrBadShape, q.Method())
	}

	if apiErr := inBandError(q.Method(), body); apiErr != nil {
		return nil, outcomeAPIError, apiErr
	}

	return body, outcomeOK, nil
}

// inBandError detects {"result":"error","message":"..."} replies.
func inBandError(method string, body []byte) *APIError {
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() || parsed.Get("result").String() != "error" {
		return nil
	}
	msg := parsed.Get("message").String()
	if msg == "" {
		msg = "unknown error"
	}
	return &APIError{Method: method, Message: msg}
}

// readBodyForError reads up to 64KB of a failed response for diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
