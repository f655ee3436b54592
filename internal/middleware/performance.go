// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/godshot/godshot/internal/logging"
)

// slowRequestThresholdMS marks the latency above which a request is
// logged as slow.
const slowRequestThresholdMS = 1000

// RequestSample is one recorded request.
type RequestSample struct {
	Path       string
	Method     string
	DurationMS int64
	StatusCode int
	Timestamp  time.Time
}

// PerformanceMonitor keeps a sliding window of request samples and
// aggregates latency percentiles per endpoint.
type PerformanceMonitor struct {
	mu         sync.RWMutex
	samples    []RequestSample
	maxSamples int
}

// EndpointStats contains aggregated statistics for an endpoint.
type EndpointStats struct {
	Endpoint     string
	RequestCount int64
	AvgDuration  float64
	P50Duration  int64
	P95Duration  int64
	P99Duration  int64
	MinDuration  int64
	MaxDuration  int64
}

// NewPerformanceMonitor creates a monitor keeping the most recent
// maxSamples requests.
func NewPerformanceMonitor(maxSamples int) *PerformanceMonitor {
	return &PerformanceMonitor{
		samples:    make([]RequestSample, 0, maxSamples),
		maxSamples: maxSamples,
	}
}

// Record adds a request sample, evicting the oldest when the window is full.
func (pm *PerformanceMonitor) Record(sample RequestSample) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.samples = append(pm.samples, sample)
	if len(pm.samples) > pm.maxSamples {
		pm.samples = pm.samples[1:]
	}
}

// Stats returns aggregated statistics for every endpoint in the window,
// sorted by request count descending.
func (pm *PerformanceMonitor) Stats() []EndpointStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	byEndpoint := make(map[string][]int64)
	for _, s := range pm.samples {
		key := s.Method + " " + s.Path
		byEndpoint[key] = append(byEndpoint[key], s.DurationMS)
	}

	stats := make([]EndpointStats, 0, len(byEndpoint))
	for endpoint, durations := range byEndpoint {
		sorted := make([]int64, len(durations))
		copy(sorted, durations)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, d := range sorted {
			sum += d
		}

		stats = append(stats, EndpointStats{
			Endpoint:     endpoint,
			RequestCount: int64(len(sorted)),
			AvgDuration:  float64(sum) / float64(len(sorted)),
			P50Duration:  percentile(sorted, 0.50),
			P95Duration:  percentile(sorted, 0.95),
			P99Duration:  percentile(sorted, 0.99),
			MinDuration:  sorted[0],
			MaxDuration:  sorted[len(sorted)-1],
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].RequestCount > stats[j].RequestCount
	})

	return stats
}

// RecentSamples returns the most recent n samples.
func (pm *PerformanceMonitor) RecentSamples(n int) []RequestSample {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if n > len(pm.samples) {
		n = len(pm.samples)
	}

	recent := make([]RequestSample, n)
	copy(recent, pm.samples[len(pm.samples)-n:])
	return recent
}

// Middleware records every request passing through and warns about
// requests slower than the threshold.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &metricsResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start).Milliseconds()

		pm.Record(RequestSample{
			Path:       r.URL.Path,
			Method:     r.Method,
			DurationMS: duration,
			StatusCode: wrapper.statusCode,
			Timestamp:  time.Now(),
		})

		if duration > slowRequestThresholdMS {
			logging.Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int64("duration_ms", duration).
				Msg("Slow request detected")
		}
	})
}

// percentile returns the percentile value from a sorted slice.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)-1) * p)
	return sorted[index]
}
