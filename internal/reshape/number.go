// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package reshape

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// number reads a count that Matomo may send as a JSON number or a numeric
// string ("5"). Missing fields, null, booleans and non-numeric strings
// report ok=false.
func number(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Num, !math.IsNaN(r.Num) && !math.IsInf(r.Num, 0)
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// integer is number restricted to whole values, used for hour labels and IDs.
func integer(r gjson.Result) (int, bool) {
	f, ok := number(r)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// label reads a row label. Numeric labels (hour "9" sent as 9) are rendered
// as their JSON text.
func label(r gjson.Result) (string, bool) {
	switch r.Type {
	case gjson.String:
		return r.Str, r.Str != ""
	case gjson.Number:
		return r.Raw, true
	default:
		return "", false
	}
}
