// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package services

import (
	"context"
	"time"
)

// UptimeService updates an uptime gauge on a fixed interval.
//
// The report callback receives the time elapsed since the service
// first started. Restarts keep the original start time, so the gauge
// reflects process age rather than supervision churn.
//
// Example usage:
//
//	svc := services.NewUptimeService(metrics.SetUptime, 15*time.Second)
//	tree.AddAPIService(svc)
type UptimeService struct {
	report   func(time.Duration)
	interval time.Duration
	started  time.Time
	name     string
}

// NewUptimeService creates a new uptime reporter.
// A non-positive interval defaults to 15s.
func NewUptimeService(report func(time.Duration), interval time.Duration) *UptimeService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &UptimeService{
		report:   report,
		interval: interval,
		started:  time.Now(),
		name:     "uptime-reporter",
	}
}

// Serve implements suture.Service.
func (s *UptimeService) Serve(ctx context.Context) error {
	s.report(time.Since(s.started))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.report(time.Since(s.started))
		}
	}
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *UptimeService) String() string {
	return s.name
}
