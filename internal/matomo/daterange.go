// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package matomo

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout is the calendar date format Matomo accepts and the frontend sends.
const DateLayout = "2006-01-02"

// DefaultLookbackDays is the width of the default window ending today.
const DefaultLookbackDays = 7

// datePattern guards the combined date=start,end form before parsing.
var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Clock supplies the current time. Tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// DateRange is an inclusive pair of YYYY-MM-DD dates.
type DateRange struct {
	Start string
	End   string
}

// String renders the range the way Matomo's date parameter expects.
func (r DateRange) String() string {
	return r.Start + "," + r.End
}

// Days lists each calendar day in the range, inclusive. A reversed or
// malformed range yields no days.
func (r DateRange) Days() []string {
	start, err := time.Parse(DateLayout, r.Start)
	if err != nil {
		return nil
	}
	end, err := time.Parse(DateLayout, r.End)
	if err != nil {
		return nil
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}

// DayCount is len(r.Days()) without allocating the list.
func (r DateRange) DayCount() int {
	start, err := time.Parse(DateLayout, r.Start)
	if err != nil {
		return 0
	}
	end, err := time.Parse(DateLayout, r.End)
	if err != nil || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// DateResolver turns optional request dates into a concrete range.
// It never fails: malformed input is treated as absent.
type DateResolver struct {
	clock Clock
	loc   *time.Location
}

// NewDateResolver returns a resolver computing "today" in loc.
// A nil clock uses the wall clock; a nil loc uses UTC.
func NewDateResolver(clock Clock, loc *time.Location) *DateResolver {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DateResolver{clock: clock, loc: loc}
}

// Location returns the zone used for "today" and hour bucketing.
func (d *DateResolver) Location() *time.Location {
	return d.loc
}

// Resolve passes start and end through when both are valid calendar dates,
// otherwise returns [today-7, today].
func (d *DateResolver) Resolve(start, end string) DateRange {
	return d.resolve(start, end, DefaultLookbackDays)
}

// ResolveToday is Resolve with a [today, today] fallback.
func (d *DateResolver) ResolveToday(start, end string) DateRange {
	return d.resolve(start, end, 0)
}

// ResolveCombined also accepts date=start,end when startDate and endDate are
// both absent.
func (d *DateResolver) ResolveCombined(start, end, combined string) DateRange {
	if start == "" && end == "" && combined != "" {
		if s, e, ok := strings.Cut(combined, ","); ok && datePattern.MatchString(s) && datePattern.MatchString(e) {
			start, end = s, e
		}
	}
	return d.Resolve(start, end)
}

// ResolveEach defaults start and end independently: a missing or malformed
// start becomes today-7 and a missing or malformed end becomes today.
func (d *DateResolver) ResolveEach(start, end string) DateRange {
	fallback := d.resolve("", "", DefaultLookbackDays)
	if ValidDate(start) {
		fallback.Start = start
	}
	if ValidDate(end) {
		fallback.End = end
	}
	return fallback
}

func (d *DateResolver) resolve(start, end string, lookback int) DateRange {
	if ValidDate(start) && ValidDate(end) {
		return DateRange{Start: start, End: end}
	}
	now := d.clock.Now().In(d.loc)
	return DateRange{
		Start: now.AddDate(0, 0, -lookback).Format(DateLayout),
		End:   now.Format(DateLayout),
	}
}

// ValidDate reports whether s is a real YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
