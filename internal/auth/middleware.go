// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/godshot/godshot/internal/logging"
	"github.com/godshot/godshot/internal/metrics"
)

type contextKey string

// ClaimsContextKey is the request context key holding the validated *Claims.
const ClaimsContextKey contextKey = "claims"

var (
	// ErrMissingToken indicates no token was found in the request.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidAuthHeader indicates a malformed Authorization header.
	ErrInvalidAuthHeader = errors.New("invalid authorization header")
)

// ClaimsFromContext extracts validated claims from a request context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// Middleware provides authentication and login rate limiting for the API.
type Middleware struct {
	jwtManager        *JWTManager
	mode              AuthMode
	loginLimiter      *RateLimiter
	rateLimitDisabled bool
}

// NewMiddleware creates authentication middleware.
//
// loginReqs/loginWindow configure the per-IP login limiter (e.g. 5
// attempts, then one more per minute). The limiter's cleanup goroutine
// starts unless rate limiting is disabled.
func NewMiddleware(jwtManager *JWTManager, mode AuthMode, loginReqs int, loginWindow time.Duration, rateLimitDisabled bool) *Middleware {
	m := &Middleware{
		jwtManager:        jwtManager,
		mode:              mode,
		loginLimiter:      NewRateLimiter(loginReqs, loginWindow),
		rateLimitDisabled: rateLimitDisabled,
	}

	if !rateLimitDisabled {
		go m.loginLimiter.startCleanup(5 * time.Minute)
	}

	return m
}

// Mode returns the configured authentication mode.
func (m *Middleware) Mode() AuthMode {
	return m.mode
}

// Close stops the login limiter's cleanup goroutine.
func (m *Middleware) Close() {
	if !m.rateLimitDisabled {
		m.loginLimiter.Stop()
	}
}

// RequireAuth enforces authentication on the wrapped handler.
// With mode none every request passes through; with mode jwt the token
// is read from the Authorization header (Bearer) or the token cookie,
// validated, and the claims are stored in the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.mode == AuthModeNone {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractToken(r)
		if err != nil {
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Error().Err(err).Msg("token validation failed")
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoginRateLimit limits login attempts per client IP.
// Applied to the login endpoint only; successful sessions are not
// affected.
func (m *Middleware) LoginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitDisabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		if !m.loginLimiter.Allow(ip) {
			metrics.RecordRateLimitHit("login")
			logging.Warn().Str("ip", ip).Msg("login rate limit exceeded")
			http.Error(w, "Too many login attempts", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken reads the JWT from the Authorization header or, when the
// header is absent, from the token cookie set by the login endpoint.
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie("token")
		if err != nil {
			return "", ErrMissingToken
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidAuthHeader
	}

	return parts[1], nil
}

// clientIP extracts the client IP address from the request.
// Godshot serves a single machine or a home network, so proxy headers
// are not consulted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimiter implements per-IP rate limiting with automatic cleanup.
type RateLimiter struct {
	limiters  map[string]*rateLimiterEntry
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	stopClean chan struct{}
}

// rateLimiterEntry wraps a rate limiter with its last access time.
type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter creates a rate limiter allowing a burst of reqsPerWindow
// and refilling one token per window afterwards.
func NewRateLimiter(reqsPerWindow int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Every(window),
		burst:     reqsPerWindow,
		stopClean: make(chan struct{}),
	}
}

// Allow checks if a request from the given IP is allowed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	entry, exists := rl.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{
			limiter:    rate.NewLimiter(rl.rate, rl.burst),
			lastAccess: time.Now(),
		}
		rl.limiters[ip] = entry
	} else {
		entry.lastAccess = time.Now()
	}
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// startCleanup periodically removes stale per-IP limiters.
func (rl *RateLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopClean:
			return
		}
	}
}

// cleanup removes limiters that have not been touched in the last hour.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := time.Now().Add(-1 * time.Hour)
	for ip, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, ip)
		}
	}
}

// Stop stops the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopClean)
}
