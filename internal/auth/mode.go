// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package auth

import "errors"

// AuthMode represents the authentication strategy for the HTTP API.
type AuthMode string

const (
	// AuthModeNone disables authentication. Intended for development
	// and for installs where the API is only reachable on localhost.
	AuthModeNone AuthMode = "none"

	// AuthModeJWT uses JWT Bearer tokens issued by the login endpoint.
	AuthModeJWT AuthMode = "jwt"
)

// ParseAuthMode converts a string to AuthMode.
// An empty string defaults to jwt so a misconfigured deployment fails
// closed rather than open.
func ParseAuthMode(s string) (AuthMode, error) {
	switch s {
	case "jwt", "":
		return AuthModeJWT, nil
	case "none":
		return AuthModeNone, nil
	default:
		return "", errors.New("invalid auth mode: " + s)
	}
}

// String returns the string representation of AuthMode.
func (m AuthMode) String() string {
	return string(m)
}
