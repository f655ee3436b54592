// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

/*
Package auth provides authentication and login rate limiting for the HTTP API.

This package implements JWT Bearer authentication for the Godshot API. It
sits between incoming HTTP requests and the API handlers; the interactive
shell never passes through it.

Key Components:

  - JWTManager: Token generation and validation using HMAC-SHA256
  - Credentials: Admin login verification with bcrypt password hashing
  - Middleware: chi-compatible RequireAuth and LoginRateLimit middleware
  - RateLimiter: Per-IP token bucket limiter for the login endpoint

Authentication Modes:

The API supports two modes (configured via AUTH_MODE):

1. JWT Mode (default):
  - Token-based authentication with configurable expiry (default: 24h)
  - Tokens accepted from the Authorization header or an HTTP-only cookie

2. None Mode:
  - Every request passes through unauthenticated
  - Intended for development and localhost-only installs

Usage Example:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	creds, err := auth.NewCredentials(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
	if err != nil {
	    return err
	}
	mode, err := auth.ParseAuthMode(cfg.Security.AuthMode)
	if err != nil {
	    return err
	}

	m := auth.NewMiddleware(jwtManager, mode, 5, time.Minute, cfg.Security.RateLimitDisabled)

	r.Route("/api/v1", func(r chi.Router) {
	    r.With(m.LoginRateLimit).Post("/auth/login", h.Login)
	    r.Group(func(r chi.Router) {
	        r.Use(m.RequireAuth)
	        // protected endpoints
	    })
	})

Security Notes:

  - JWT secrets must be at least 32 characters (enforced)
  - Passwords must be at least 8 characters (enforced)
  - Only HMAC signing methods are accepted during validation
  - Credential comparison is timing-safe
  - The login limiter allows a small burst per IP and then one attempt
    per window, with stale IPs cleaned up every 5 minutes

See Also:

  - internal/api: HTTP handlers protected by this middleware
  - internal/config: SecurityConfig with the AUTH_MODE / JWT_SECRET settings
*/
package auth
