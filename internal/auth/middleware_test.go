// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/godshot/godshot/internal/config"
	"github.com/godshot/godshot/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()
	manager, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "this_is_a_very_long_secret_key_for_testing_12345",
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return manager
}

// okHandler records whether it ran and what claims the context carried
type okHandler struct {
	called bool
	claims *Claims
}

func (h *okHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.claims, _ = ClaimsFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func TestParseAuthMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    AuthMode
		wantErr bool
	}{
		{"jwt", "jwt", AuthModeJWT, false},
		{"empty defaults to jwt", "", AuthModeJWT, false},
		{"none", "none", AuthModeNone, false},
		{"basic is not supported", "basic", "", true},
		{"garbage", "password123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAuthMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("ParseAuthMode() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("ParseAuthMode() unexpected error = %v", err)
				return
			}
			if got != tt.want {
				t.Errorf("ParseAuthMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRequireAuth_NoneMode(t *testing.T) {
	m := NewMiddleware(nil, AuthModeNone, 5, time.Minute, true)
	handler := &okHandler{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	m.RequireAuth(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !handler.called {
		t.Error("handler was not called in none mode")
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	m := NewMiddleware(newTestJWTManager(t), AuthModeJWT, 5, time.Minute, true)
	handler := &okHandler{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	m.RequireAuth(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if handler.called {
		t.Error("handler should not run without a token")
	}
}

func TestRequireAuth_InvalidHeader(t *testing.T) {
	m := NewMiddleware(newTestJWTManager(t), AuthModeJWT, 5, time.Minute, true)
	handler := &okHandler{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.Header.Set("Authorization", "Token abcdef")
	rec := httptest.NewRecorder()
	m.RequireAuth(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	m := NewMiddleware(newTestJWTManager(t), AuthModeJWT, 5, time.Minute, true)
	handler := &okHandler{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	m.RequireAuth(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if handler.called {
		t.Error("handler should not run with an invalid token")
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	manager := newTestJWTManager(t)
	m := NewMiddleware(manager, AuthModeJWT, 5, time.Minute, true)
	handler := &okHandler{}

	token, err := manager.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	m.RequireAuth(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !handler.called {
		t.Fatal("handler was not called with a valid token")
	}
	if handler.claims == nil {
		t.Fatal("claims missing from request context")
	}
	if handler.claims.Username != "admin" {
		t.Errorf("claims username = %q, want %q", handler.claims.Username, "admin")
	}
}

func TestRequireAuth_CookieFallback(t *testing.T) {
	manager := newTestJWTManager(t)
	m := NewMiddleware(manager, AuthModeJWT, 5, time.Minute, true)
	handler := &okHandler{}

	token, err := manager.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	m.RequireAuth(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !handler.called {
		t.Error("handler was not called with a valid cookie token")
	}
}

func TestLoginRateLimit(t *testing.T) {
	m := NewMiddleware(newTestJWTManager(t), AuthModeJWT, 2, time.Minute, false)
	defer m.Close()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := m.LoginRateLimit(handler)

	// Burst of 2 allowed, third attempt rejected
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.9:41234"
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.9:41234"
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	// A different IP is unaffected
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.10:41234"
	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestLoginRateLimit_Disabled(t *testing.T) {
	m := NewMiddleware(newTestJWTManager(t), AuthModeJWT, 1, time.Minute, true)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := m.LoginRateLimit(handler)

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.9:41234"
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("192.168.1.1") {
			t.Fatalf("request %d should be allowed within burst", i+1)
		}
	}
	if rl.Allow("192.168.1.1") {
		t.Error("request beyond burst should be denied")
	}

	// Independent bucket per IP
	if !rl.Allow("192.168.1.2") {
		t.Error("different IP should have its own bucket")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	rl.Allow("192.168.1.1")
	rl.Allow("192.168.1.2")

	// Age one entry past the cleanup threshold
	rl.mu.Lock()
	rl.limiters["192.168.1.1"].lastAccess = time.Now().Add(-2 * time.Hour)
	rl.mu.Unlock()

	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, exists := rl.limiters["192.168.1.1"]; exists {
		t.Error("stale limiter should have been removed")
	}
	if _, exists := rl.limiters["192.168.1.2"]; !exists {
		t.Error("fresh limiter should have been kept")
	}
}

func TestClaimsFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, ok := ClaimsFromContext(req.Context()); ok {
		t.Error("expected no claims in a fresh context")
	}
}
