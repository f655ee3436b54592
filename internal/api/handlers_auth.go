// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package api

import (
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/godshot/godshot/internal/audit"
	"github.com/godshot/godshot/internal/auth"
	"github.com/godshot/godshot/internal/models"
)

// Login handles authentication requests
//
// @Summary Authenticate
// @Description Authenticates with username and password, returns a JWT in the body and an HTTP-only cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.APIResponse{data=models.LoginResponse} "Authentication successful"
// @Failure 400 {object} models.APIResponse "Invalid request body"
// @Failure 401 {object} models.APIResponse "Invalid credentials"
// @Failure 403 {object} models.APIResponse "Authentication disabled"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err)
		return
	}

	validationReq := LoginRequestValidation{
		Username: req.Username,
		Password: req.Password,
	}
	if apiErr := validateRequest(&validationReq); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if h.config == nil || auth.AuthMode(h.config.Security.AuthMode) != auth.AuthModeJWT {
		respondError(w, http.StatusForbidden, "AUTH_DISABLED", "Authentication is disabled", nil)
		return
	}
	if h.jwtManager == nil || h.credentials == nil {
		respondError(w, http.StatusInternalServerError, "AUTH_NOT_CONFIGURED", "Authentication is not configured", nil)
		return
	}

	ip := requestIP(r)
	userAgent := r.UserAgent()

	if !h.credentials.Verify(req.Username, req.Password) {
		h.security.LogLoginFailure(req.Username, ip, userAgent, "invalid credentials")
		h.audit.LogAuthFailure(req.Username, audit.SourceFromRequest(r), "invalid credentials")
		respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
		return
	}

	token, err := h.jwtManager.GenerateToken(req.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate authentication token", err)
		return
	}

	expiresAt := time.Now().Add(h.jwtManager.Timeout())
	h.setAuthCookie(w, r, token, expiresAt)
	h.security.LogLoginSuccess(req.Username, ip, userAgent)
	h.audit.LogAuthSuccess(req.Username, audit.SourceFromRequest(r))

	respondJSONNoStore(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.LoginResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			Username:  req.Username,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// Logout clears the authentication cookie
//
// @Summary Log out
// @Description Expires the authentication cookie. The JWT itself stays valid until its expiry.
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "Logged out"
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	h.audit.LogLogout(h.apiUser(r), audit.SourceFromRequest(r))

	respondJSONNoStore(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   map[string]interface{}{"logged_out": true},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// setAuthCookie sets the authentication cookie.
func (h *Handler) setAuthCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// requestIP extracts the client IP for security logging.
func requestIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
