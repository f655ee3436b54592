// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

/*
Package api implements the HTTP API server for Godshot.

The API exposes the same brewing session the interactive shell drives:
switch user, suggest a brew, evaluate it, inspect statistics and
history, and manage the roast date. All endpoints wrap their payloads in
the models.APIResponse envelope and return structured error codes.

Routing uses Chi with production middleware from the Chi ecosystem
(go-chi/cors for CORS, go-chi/httprate for rate limiting) composed with
the application middleware from internal/middleware and the JWT
authentication from internal/auth.

Endpoint Groups:

  - /api/v1/health: Liveness and dependency status (no auth)
  - /api/v1/auth: Login and logout (strict rate limits)
  - /api/v1: Session operations (authenticated)
  - /api/v1/ws: WebSocket for real-time stats updates (authenticated)
  - /metrics: Prometheus metrics
  - /swagger/*: Interactive API documentation

Session Endpoints:

  - POST /api/v1/users/{username}/switch: activate a user session
  - GET  /api/v1/users: list registered users
  - POST /api/v1/suggest: suggest grind size, volume, and dose
  - POST /api/v1/evaluate: rate the last brew and learn from it
  - GET  /api/v1/recommendations: best known actions, no exploration
  - GET  /api/v1/stats: history and learning statistics
  - GET  /api/v1/records: brew history, oldest first
  - GET  /api/v1/roast-date, PUT /api/v1/roast-date: roast date

Usage Example:

	handler := api.NewHandler(eng, db, cfg, jwtManager, creds, wsHub, version)
	router := api.NewRouter(handler, authMW, &cfg.Security)
	server := &http.Server{Addr: addr, Handler: router.SetupChi()}

The server holds one brewing session; concurrent requests serialize on
the engine's mutex. WebSocket clients receive a stats_update broadcast
after every suggestion and evaluation.

See Also:

  - internal/engine: Session orchestration shared with the shell
  - internal/auth: JWT middleware and login rate limiting
  - internal/models: Request and response structures
*/
package api
