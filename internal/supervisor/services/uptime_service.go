// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package services

import (
	"context"
	"time"

	"github.com/tomtom215/matomo-relay/internal/metrics"
)

// UptimeService keeps app_uptime_seconds current while the tree runs.
type UptimeService struct {
	start    time.Time
	interval time.Duration
}

// NewUptimeService reports uptime since start every interval.
func NewUptimeService(start time.Time, interval time.Duration) *UptimeService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &UptimeService{start: start, interval: interval}
}

// Serve implements suture.Service.
func (u *UptimeService) Serve(ctx context.Context) error {
	stop := make(chan struct{})
	metrics.StartUptimeTicker(u.start, u.interval, stop)
	<-ctx.Done()
	close(stop)
	return ctx.Err()
}

func (u *UptimeService) String() string {
	return "uptime-ticker"
}
