// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

// Package main provides the Godshot CLI and HTTP server
//
// Godshot learns espresso brewing parameters per user through taste
// feedback and serves suggestions over an interactive shell or a
// JSON API.
//
// @title Godshot API
// @version 1.0
// @description Espresso brewing personalization engine with per-user reinforcement learning
// @description
// @description ## Features
// @description
// @description - **Brew Suggestions**: Grind size, brew volume and coffee dose tuned to your taste
// @description - **Taste Feedback Loop**: Rate bitterness, acidity, strength and overall experience on 1-10 scales
// @description - **Per-User Profiles**: Independent learning state and brew history per user
// @description - **Bean Freshness Tracking**: Roast date aware suggestions
// @description - **Real-time Updates**: WebSocket notifications for suggested and evaluated brews
// @description - **Prometheus Metrics**: Operational and learning metrics at /metrics
// @description
// @description ## Authentication
// @description
// @description Most endpoints require JWT authentication via HTTP-only cookie or Bearer token.
// @description Use `/api/v1/auth/login` to obtain a token, which will be automatically included in subsequent requests.
// @description
// @description ## Rate Limiting
// @description
// @description Default rate limit: 100 requests per minute per IP address.
// @description Rate limit headers are included in responses: `X-RateLimit-Limit`, `X-RateLimit-Remaining`, `X-RateLimit-Reset`.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message"
// @description   },
// @description   "metadata": {
// @description     "timestamp": "2026-08-25T07:12:56Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/godshot/godshot/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:9330
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in cookie
// @name token
// @description JWT token stored in HTTP-only cookie. Obtain via /api/v1/auth/login endpoint.
//
// @tag.name Core
// @tag.description Health checks and endpoint performance statistics
//
// @tag.name Auth
// @tag.description Authentication and session management endpoints
//
// @tag.name Session
// @tag.description User profiles, roast dates, brew history and learning statistics
//
// @tag.name Brewing
// @tag.description Brew suggestions, evaluations and Q-value recommendations
//
// @tag.name Realtime
// @tag.description Real-time WebSocket connections for live brew notifications
package main
