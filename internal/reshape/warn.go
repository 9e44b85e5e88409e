// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package reshape

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tomtom215/matomo-relay/internal/logging"
	"github.com/tomtom215/matomo-relay/internal/matomo"
	"github.com/tomtom215/matomo-relay/internal/metrics"
)

// Warning reasons, used as the reshape_warnings_total reason label.
const (
	reasonMissingLabel = "missing_label"
	reasonMissingCount = "missing_count"
	reasonExcluded     = "excluded"
	reasonHourRange    = "hour_out_of_range"
	reasonTimestamp    = "missing_timestamp"
	reasonBadSiteID    = "bad_site_id"
	reasonNotArray     = "day_not_array"
	reasonEmptyObject  = "empty_payload"
)

// warnRow logs a skipped or zero-substituted row and counts it.
func warnRow(ctx context.Context, component, reason string, row gjson.Result) {
	metrics.RecordReshapeWarning(component, reason)
	logging.Ctx(ctx).Warn().
		Str("component", component).
		Str("reason", reason).
		Str("row", truncateRaw(row.Raw)).
		Msg("Reshape skipped or defaulted a row")
}

// badShape logs the full payload (capped) and returns an ErrBadShape.
func badShape(ctx context.Context, component, want string, body []byte) error {
	logging.Ctx(ctx).Error().
		Str("component", component).
		Str("expected", want).
		Str("payload", logging.TruncatePayload(body)).
		Msg("Unexpected Matomo response shape")
	return fmt.Errorf("%w: %s: expected %s", matomo.ErrBadShape, component, want)
}

// parseArray requires body to be a JSON array.
func parseArray(ctx context.Context, component string, body []byte) (gjson.Result, error) {
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return gjson.Result{}, badShape(ctx, component, "array", body)
	}
	return parsed, nil
}

// parseObject requires body to be a JSON object. PHP encodes an empty
// associative array as [], so an empty array is read as an empty object.
func parseObject(ctx context.Context, component string, body []byte) (gjson.Result, error) {
	parsed := gjson.ParseBytes(body)
	switch {
	case parsed.IsObject():
		return parsed, nil
	case parsed.IsArray() && len(parsed.Array()) == 0:
		return gjson.Parse("{}"), nil
	default:
		return gjson.Result{}, badShape(ctx, component, "object", body)
	}
}

const maxRowLogBytes = 512

func truncateRaw(raw string) string {
	if len(raw) <= maxRowLogBytes {
		return raw
	}
	return strings.ToValidUTF8(raw[:maxRowLogBytes], "") + "...[truncated]"
}
