// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/godshot/godshot/internal/audit"
	"github.com/godshot/godshot/internal/auth"
	"github.com/godshot/godshot/internal/config"
	"github.com/godshot/godshot/internal/database"
	"github.com/godshot/godshot/internal/engine"
	"github.com/godshot/godshot/internal/logging"
	"github.com/godshot/godshot/internal/middleware"
	ws "github.com/godshot/godshot/internal/websocket"
)

// Handler contains dependencies for API handlers.
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, WebSocket plumbing (this file)
//   - handlers_helpers.go: Shared response and validation helpers
//   - handlers_health.go: Health endpoint
//   - handlers_auth.go: Login and logout
//   - handlers_core.go: Session endpoints (suggest, evaluate, stats, ...)
type Handler struct {
	engine      *engine.Engine
	db          *database.DB
	config      *config.Config
	jwtManager  *auth.JWTManager
	credentials *auth.Credentials
	wsHub       *ws.Hub
	security    *logging.SecurityLogger
	audit       *audit.Logger
	perfMon     *middleware.PerformanceMonitor
	version     string
	startTime   time.Time
}

// NewHandler creates the API handler.
//
// The db handle is used for health checks only; all session operations
// go through the engine, which owns its own database access. jwtManager
// and creds may be nil when authentication is disabled, and wsHub may
// be nil when the WebSocket endpoint should report unavailable.
func NewHandler(eng *engine.Engine, db *database.DB, cfg *config.Config, jwtManager *auth.JWTManager, creds *auth.Credentials, wsHub *ws.Hub, version string) *Handler {
	if version == "" {
		version = "dev"
	}

	return &Handler{
		engine:      eng,
		db:          db,
		config:      cfg,
		jwtManager:  jwtManager,
		credentials: creds,
		wsHub:       wsHub,
		security:    logging.NewSecurityLogger(),
		perfMon:     middleware.NewPerformanceMonitor(1000),
		version:     version,
		startTime:   time.Now(),
	}
}

// SetAuditLogger attaches the security audit trail. The handler works
// without one; all audit emission points are nil-safe.
func (h *Handler) SetAuditLogger(l *audit.Logger) {
	h.audit = l
}

// PerformanceStats returns latency statistics for the monitored endpoints.
func (h *Handler) PerformanceStats() []middleware.EndpointStats {
	if h.perfMon == nil {
		return nil
	}
	return h.perfMon.Stats()
}

// apiUser returns the authenticated API username for audit
// attribution. Routes outside RequireAuth (logout) fall back to
// validating the request's own cookie; "anonymous" covers disabled
// authentication.
func (h *Handler) apiUser(r *http.Request) string {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return claims.Username
	}
	if h.jwtManager != nil {
		if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
			if claims, err := h.jwtManager.ValidateToken(cookie.Value); err == nil {
				return claims.Username
			}
		}
	}
	return "anonymous"
}

// broadcastStats pushes the current session statistics to all WebSocket
// clients. Called after operations that change the learning state.
func (h *Handler) broadcastStats(ctx context.Context) {
	if h.wsHub == nil {
		return
	}

	stats, err := h.engine.Stats(ctx)
	if err != nil {
		return
	}

	totalBrews := 0
	lastBrew := ""
	if stats.History != nil {
		totalBrews = int(stats.History.TotalBrews)
		if stats.History.LastBrewAt != nil {
			lastBrew = stats.History.LastBrewAt.Format(time.RFC3339)
		}
	}

	h.wsHub.BroadcastStatsUpdate(stats.Username, totalBrews, stats.Epsilon, lastBrew)
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Non-browser clients omit the Origin header; only browser
	// connections are subject to the origin allowlist.
	if origin == "" {
		return true
	}

	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected: origin not allowed")
	return false
}
