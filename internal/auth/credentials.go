// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances hash strength against login latency.
const bcryptCost = 12

// Credentials verifies the admin login against a bcrypt-hashed password.
// The password is hashed once at construction so the plaintext never
// outlives startup.
type Credentials struct {
	username     string
	passwordHash []byte
}

// NewCredentials creates a credential verifier for the admin account.
func NewCredentials(username, password string) (*Credentials, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &Credentials{
		username:     username,
		passwordHash: hash,
	}, nil
}

// Username returns the configured admin username.
func (c *Credentials) Username() string {
	return c.username
}

// Verify checks a username/password pair.
//
// Both comparisons always run: the username check uses constant-time
// comparison and bcrypt.CompareHashAndPassword is timing-safe, so the
// response time does not reveal which part was wrong.
func (c *Credentials) Verify(username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)) == nil

	return usernameMatch && passwordMatch
}
