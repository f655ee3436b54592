// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/godshot/godshot/internal/config"
)

// minSecretLength is the minimum accepted JWT secret length. Shorter
// HMAC keys make brute-forcing the signature practical.
const minSecretLength = 32

// Claims represents the JWT claims issued after a successful login.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token creation and validation.
//
// Tokens are signed with HMAC-SHA256 (HS256) and are stateless: they
// cannot be revoked before expiration, so the session timeout bounds
// the exposure of a leaked token.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a JWT token manager from the security configuration.
//
// The secret must be at least 32 characters. A zero SessionTimeout
// defaults to 24 hours.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters, got %d", minSecretLength, len(secret))
	}

	timeout := cfg.SessionTimeout
	if timeout == 0 {
		timeout = 24 * time.Hour
	}

	return &JWTManager{
		secret:  []byte(secret),
		timeout: timeout,
	}, nil
}

// Timeout returns the configured token lifetime.
// The login handler uses it to set the cookie expiry.
func (m *JWTManager) Timeout() time.Duration {
	return m.timeout
}

// GenerateToken creates a signed JWT for an authenticated user.
//
// Claims carry the username plus ExpiresAt (now + timeout), IssuedAt
// and NotBefore.
func (m *JWTManager) GenerateToken(username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a JWT token string and extracts the claims.
//
// Validation covers the HMAC signature, the signing algorithm (only
// HMAC methods are accepted, which blocks algorithm confusion attacks),
// and the ExpiresAt/NotBefore claims against server time.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
