// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateAgent(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	if err := c.validateAudit(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateStorage() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("BADGER_PATH must not be empty")
	}
	if c.Storage.GCInterval <= 0 {
		return fmt.Errorf("STORAGE_GC_INTERVAL must be positive")
	}
	if c.Storage.GCDiscardRatio <= 0 || c.Storage.GCDiscardRatio >= 1 {
		return fmt.Errorf("STORAGE_GC_DISCARD_RATIO must be between 0 and 1 exclusive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

// validateAgent checks the Q-learning hyperparameter ranges. The agent
// constructor tolerates bad values by falling back to defaults, but
// explicitly configured values outside their ranges are a user error
// worth failing fast on.
func (c *Config) validateAgent() error {
	a := c.Agent
	if a.LearningRate <= 0 || a.LearningRate > 1 {
		return fmt.Errorf("AGENT_LEARNING_RATE must be in (0, 1]")
	}
	if a.DiscountFactor < 0 || a.DiscountFactor > 1 {
		return fmt.Errorf("AGENT_DISCOUNT_FACTOR must be in [0, 1]")
	}
	if a.Epsilon < 0 || a.Epsilon > 1 {
		return fmt.Errorf("AGENT_EPSILON must be in [0, 1]")
	}
	if a.EpsilonDecay <= 0 || a.EpsilonDecay > 1 {
		return fmt.Errorf("AGENT_EPSILON_DECAY must be in (0, 1]")
	}
	if a.MinEpsilon < 0 || a.MinEpsilon > a.Epsilon {
		return fmt.Errorf("AGENT_MIN_EPSILON must be in [0, AGENT_EPSILON]")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return c.validateEnvironment()
}

var validEnvironments = map[string]bool{
	"development": true,
	"dev":         true,
	"staging":     true,
	"production":  true,
	"prod":        true,
}

func (c *Config) validateEnvironment() error {
	if !validEnvironments[strings.ToLower(c.Server.Environment)] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

var validAuthModes = map[string]bool{
	"none": true,
	"jwt":  true,
}

func (c *Config) validateSecurity() error {
	if err := c.validateAuthMode(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateRateLimits(); err != nil {
		return err
	}

	return c.validateJWTAuth()
}

func (c *Config) validateAuthMode() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}

	// Refuse to start an unauthenticated API in production.
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production. " +
			"Set AUTH_MODE=jwt or use ENVIRONMENT=development for testing purposes")
	}

	return nil
}

// validateCORS rejects wildcard origins in production with
// authentication enabled: any origin could then use stolen
// credentials against protected endpoints.
func (c *Config) validateCORS() error {
	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled. " +
			"Set specific origins: CORS_ORIGINS=https://yourdomain.com")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// validateJWTAuth validates JWT settings when auth_mode is jwt.
//
// The interactive shell runs without the API, so an empty secret is
// tolerated outside production; serve mode still refuses to construct
// the token manager without one.
func (c *Config) validateJWTAuth() error {
	if c.Security.AuthMode != "jwt" {
		return nil
	}

	if c.Security.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=jwt in production")
		}
		return nil
	}

	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}

	if c.IsProduction() {
		if c.Security.AdminUsername == "" {
			return fmt.Errorf("ADMIN_USERNAME is required when AUTH_MODE=jwt in production")
		}
		if c.Security.AdminPassword == "" {
			return fmt.Errorf("ADMIN_PASSWORD is required when AUTH_MODE=jwt in production")
		}
		if containsPlaceholder(c.Security.AdminPassword) {
			return fmt.Errorf("ADMIN_PASSWORD contains a placeholder value - set a secure password")
		}
	}

	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}

	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if c.Events.BufferSize < 1 {
		return fmt.Errorf("EVENTS_BUFFER_SIZE must be at least 1")
	}
	if c.Events.RouterRetryCount < 0 {
		return fmt.Errorf("EVENTS_ROUTER_RETRY_COUNT must not be negative")
	}
	if c.Events.RouterRetryInitialInterval <= 0 {
		return fmt.Errorf("EVENTS_ROUTER_RETRY_INTERVAL must be positive")
	}
	if c.Events.RouterCloseTimeout <= 0 {
		return fmt.Errorf("EVENTS_ROUTER_CLOSE_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	if c.Audit.RetentionDays < 1 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must be at least 1")
	}
	if c.Audit.BufferSize < 1 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be at least 1")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns indicate the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
