// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package logging

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// MaxPayloadLogBytes caps how much of a raw upstream payload is written to a log line.
const MaxPayloadLogBytes = 64 * 1024

// sensitiveParams are query parameter names whose values never reach the logs.
var sensitiveParams = []string{"token_auth", "token", "api_key", "apikey", "password"}

// SanitizeToken masks a token, keeping only the first and last 4 characters.
// Example: "7014b00d4bc9cbb906138d9c07d2e12f" -> "7014...e12f"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeURL masks credential query parameters in a raw URL.
// Unparsable input is returned as "<invalid url>" rather than echoed.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	changed := false
	for _, name := range sensitiveParams {
		if v := q.Get(name); v != "" {
			q.Set(name, SanitizeToken(v))
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// TruncatePayload returns at most MaxPayloadLogBytes of body as a string,
// cut on a rune boundary, with a marker when truncated.
func TruncatePayload(body []byte) string {
	if len(body) <= MaxPayloadLogBytes {
		return string(body)
	}
	cut := MaxPayloadLogBytes
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	var b strings.Builder
	b.Grow(cut + 16)
	b.Write(body[:cut])
	b.WriteString("...[truncated]")
	return b.String()
}
