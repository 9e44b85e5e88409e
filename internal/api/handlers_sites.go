// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package api

import (
	"net/http"

	"github.com/tomtom215/matomo-relay/internal/matomo"
	"github.com/tomtom215/matomo-relay/internal/reshape"
)

const methodSitesWithViewAccess = "SitesManager.getSitesWithAtLeastViewAccess"

// Sites returns every site the token can view, classified and grouped by
// category.
func (h *Handler) Sites(w http.ResponseWriter, r *http.Request) {
	body, ok := h.fetch(w, r, matomo.NewQuery(methodSitesWithViewAccess), "site list")
	if !ok {
		return
	}

	dir, err := reshape.Sites(r.Context(), body, h.classifier)
	if err != nil {
		NewResponseWriter(w, r).UpstreamError(err, "site list")
		return
	}
	NewResponseWriter(w, r).JSON(http.StatusOK, dir)
}
