// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/godshot/godshot/internal/auth"
	"github.com/godshot/godshot/internal/config"
	"github.com/godshot/godshot/internal/middleware"
)

// Router wires handlers and middleware into the HTTP route tree.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for the given handler and auth middleware.
// The security configuration drives CORS and the default rate limits;
// a nil configuration yields secure defaults.
func NewRouter(handler *Handler, middleware *auth.Middleware, security *config.SecurityConfig) *Router {
	return &Router{
		handler:       handler,
		middleware:    middleware,
		chiMiddleware: NewChiMiddlewareFromSecurity(security),
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
// This allows the handler-level middleware to work with Chi's r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes using the Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(chiMiddleware(middleware.RequestID)) // Assign and echo X-Request-ID
	r.Use(chimiddleware.RealIP)                // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)             // Recover from panics
	r.Use(router.chiMiddleware.CORS())         // CORS must be global to handle OPTIONS preflight

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting so monitoring tools can poll frequently
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Authentication Endpoints
	// ========================
	// Strict rate limiting for brute force prevention
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Use(APISecurityHeaders())

		// Login has the strictest limits (5 attempts per 5 minutes).
		// The auth middleware limiter runs outermost so rejected
		// attempts are recorded in the rate limit metrics.
		r.With(router.middleware.LoginRateLimit, router.chiMiddleware.RateLimitLogin()).
			Post("/login", router.handler.Login)
		r.Post("/logout", router.handler.Logout)
	})

	// ========================
	// Session Endpoints
	// ========================
	// All brewing endpoints require authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.Compression))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		if router.handler.perfMon != nil {
			r.Use(router.handler.perfMon.Middleware)
		}
		r.Use(router.middleware.RequireAuth)

		r.Get("/users", router.handler.Users)
		r.With(router.chiMiddleware.RateLimitWrite()).Post("/users/{username}/switch", router.handler.SwitchUser)

		r.With(router.chiMiddleware.RateLimitWrite()).Post("/suggest", router.handler.Suggest)
		r.With(router.chiMiddleware.RateLimitWrite()).Post("/evaluate", router.handler.Evaluate)
		r.With(router.chiMiddleware.RateLimitWrite()).Put("/roast-date", router.handler.SetRoastDate)

		r.Get("/recommendations", router.handler.Recommendations)
		r.Get("/stats", router.handler.Stats)
		r.Get("/records", router.handler.Records)
		r.Get("/roast-date", router.handler.GetRoastDate)
		r.Get("/performance", router.handler.Performance)
		r.Get("/audit", router.handler.AuditEvents)

		r.With(router.chiMiddleware.RateLimitWebSocket()).Get("/ws", router.handler.WebSocket)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}
