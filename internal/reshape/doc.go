// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

/*
Package reshape turns raw Matomo Reporting API JSON into the shapes the
dashboard consumes.

Every function is pure apart from logging: it takes the upstream body and
returns a value ready for JSON encoding. Rows are read with gjson so that
counts arriving as numbers or numeric strings are handled alike.

# Failure Semantics

Missing or malformed fields never fail a reshape. The row is skipped or the
value defaults to zero, a warning is logged through logging.Ctx and
reshape_warnings_total is incremented. Only a payload whose container is
wrong (an object where an array was expected, or the reverse) fails, with
an error wrapping matomo.ErrBadShape. The offending payload is logged,
capped at logging.MaxPayloadLogBytes.

# Ordering

LabelCounts, DailyLabelTotals and SiteDirectory encode their keys in
first-seen or declaration order rather than Go's sorted map order.

# Components

  - Classifier: site ID to category, first match in table order
  - AggregateLabels: label to summed count with optional exclusions
  - HourlyFromReport / HourlyFromVisits / AverageHourly: 24-slot buckets
  - EventSummary, DailySearched, DailyCounts: event reports
  - Statistics, OSDistribution: visit reports
  - Sites: site list grouped by category
*/
package reshape
