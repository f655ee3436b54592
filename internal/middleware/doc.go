// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

/*
Package middleware provides HTTP middleware components for the API server.

This package implements infrastructure middleware for compression, request
ID tracking, Prometheus metrics, and latency monitoring. These components
work alongside the authentication middleware in internal/auth to form the
complete middleware stack assembled by internal/api.

Key Components:

  - Compression: Gzip compression for response bodies
  - Request ID: UUID-based request tracking
  - Prometheus Metrics: HTTP request/response instrumentation
  - Performance Monitor: Request latency tracking with percentiles

Middleware Stack:

The router composes the stack per route group, outermost first:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(rateLimit)
	r.Use(chiMiddleware(middleware.PrometheusMetrics))
	r.Use(authMW.RequireAuth)
	r.Get("/api/v1/stats", h.Stats)

Usage Example - Request ID:

	http.HandleFunc("/api/v1/suggest", middleware.RequestID(handler))

	func handler(w http.ResponseWriter, r *http.Request) {
	    id := middleware.GetRequestID(r.Context())
	    logging.Info().Str("request_id", id).Msg("processing")
	}

Usage Example - Performance Monitoring:

	perfMon := middleware.NewPerformanceMonitor(1000)
	mux.Handle("/api/v1/stats", perfMon.Middleware(handler))
	stats := perfMon.Stats()

Thread Safety:

All middleware components are safe for concurrent use. Compression pools
gzip writers, the performance monitor guards its sample window with a
RWMutex, request IDs travel in the immutable request context, and the
Prometheus collectors are atomic.

See Also:

  - internal/auth: Authentication and login rate limiting
  - internal/api: HTTP handlers wrapped by this stack
  - internal/metrics: Prometheus metric definitions
*/
package middleware
