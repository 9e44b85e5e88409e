// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

// Package validation validates inbound query parameters using
// go-playground/validator v10.
//
// A single validator instance is built once and shared; it caches struct
// metadata, so request structs are cheap to validate on every call.
//
// # Field Names
//
// Errors name the field by its `query` struct tag, so a failure reads
// "siteId parameter is required" rather than naming the Go field.
//
// # Custom Tags
//
//   - siteid: a positive decimal Matomo site ID ("16", not "16a" or "0")
//
// Mandatory dates, where an endpoint has them, use the built-in datetime tag
// with a date-only layout; the message then reads "YYYY-MM-DD". Optional
// dates are not validated here, they fall back to a default range instead.
//
//	type campaignsQuery struct {
//	    SiteID    string `query:"siteId" validate:"required,siteid"`
//	    StartDate string `query:"startDate"`
//	}
//
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message)
//	    return
//	}
//
// # Thread Safety
//
// GetValidator and ValidateStruct are safe for concurrent use.
package validation
