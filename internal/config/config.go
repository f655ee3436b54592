// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package config

import (
	"strings"
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML config file, and environment variables.
//
// Sections:
//   - Storage: BadgerDB key-value store for agent snapshots and user settings
//   - Database: DuckDB store for the brew history
//   - Agent: Q-learning hyperparameters
//   - Server: HTTP API server (serve mode)
//   - Security: authentication and rate limiting for the API
//   - Events: pub/sub notifications (in-process by default, NATS optional)
//   - Audit: security audit trail for the API (serve mode only)
//   - Logging: log level and output format
//
// Config is immutable after Load and safe for concurrent read access.
type Config struct {
	Storage  StorageConfig  `koanf:"storage"`
	Database DatabaseConfig `koanf:"database"`
	Agent    AgentConfig    `koanf:"agent"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Events   EventsConfig   `koanf:"events"`
	Audit    AuditConfig    `koanf:"audit"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// StorageConfig holds BadgerDB settings for the snapshot store.
//
// Environment Variables:
//   - BADGER_PATH: BadgerDB directory (default: ~/.godshot/badger)
//   - STORAGE_GC_INTERVAL: value-log GC interval (default: 10m)
//   - STORAGE_GC_DISCARD_RATIO: value-log GC discard ratio (default: 0.5)
type StorageConfig struct {
	Path           string        `koanf:"path"`
	GCInterval     time.Duration `koanf:"gc_interval"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio"`
}

// DatabaseConfig holds DuckDB settings for the brew history store.
//
// Environment Variables:
//   - DUCKDB_PATH: database file path (default: ~/.godshot/godshot.duckdb)
//   - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 512MB)
//   - DUCKDB_THREADS: DuckDB thread count (0 = use NumCPU)
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // Number of DuckDB threads (0 = use NumCPU)
}

// AgentConfig holds the Q-learning hyperparameters.
//
// The discount factor is part of the standard parameter set but each
// brew is a complete episode, so it never influences the update.
//
// Environment Variables:
//   - AGENT_LEARNING_RATE: update step size in (0, 1] (default: 0.1)
//   - AGENT_DISCOUNT_FACTOR: future reward weight in [0, 1] (default: 0.95)
//   - AGENT_EPSILON: initial exploration rate in [0, 1] (default: 0.1)
//   - AGENT_EPSILON_DECAY: per-update decay factor in (0, 1] (default: 0.995)
//   - AGENT_MIN_EPSILON: exploration floor (default: 0.01)
type AgentConfig struct {
	LearningRate   float64 `koanf:"learning_rate"`
	DiscountFactor float64 `koanf:"discount_factor"`
	Epsilon        float64 `koanf:"epsilon"`
	EpsilonDecay   float64 `koanf:"epsilon_decay"`
	MinEpsilon     float64 `koanf:"min_epsilon"`
}

// ServerConfig holds HTTP server settings for serve mode.
//
// Environment Variables:
//   - HTTP_PORT: listen port (default: 9330)
//   - HTTP_HOST: listen host (default: 0.0.0.0)
//   - HTTP_TIMEOUT: request read/write timeout (default: 30s)
//   - ENVIRONMENT: "development", "staging" or "production"
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// SecurityConfig holds authentication and rate limiting settings for
// the HTTP API. The interactive shell never consults this section.
//
// Environment Variables:
//   - AUTH_MODE: "jwt" or "none" (default: jwt)
//   - JWT_SECRET: HS256 signing secret, 32+ characters
//   - SESSION_TIMEOUT: token lifetime (default: 24h)
//   - ADMIN_USERNAME / ADMIN_PASSWORD: API login credentials
//   - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW: API rate limit
//   - DISABLE_RATE_LIMIT: disable API rate limiting
//   - CORS_ORIGINS: comma-separated allowed origins (default: *)
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// EventsConfig holds pub/sub settings. The default transport is an
// in-process GoChannel; builds with the nats tag can run an embedded
// NATS JetStream server instead.
//
// Environment Variables:
//   - EVENTS_ENABLED: enable event publishing (default: true)
//   - NATS_URL: NATS server URL (nats builds)
//   - NATS_EMBEDDED: run the embedded NATS server (default: true)
//   - NATS_STORE_DIR: JetStream storage directory
//   - EVENTS_BUFFER_SIZE: GoChannel output buffer (default: 64)
//   - EVENTS_ROUTER_RETRY_COUNT: handler retry attempts (default: 3)
//   - EVENTS_ROUTER_RETRY_INTERVAL: initial retry backoff (default: 100ms)
//   - EVENTS_ROUTER_CLOSE_TIMEOUT: router shutdown timeout (default: 30s)
type EventsConfig struct {
	Enabled                    bool          `koanf:"enabled"`
	URL                        string        `koanf:"url"`
	EmbeddedServer             bool          `koanf:"embedded_server"`
	StoreDir                   string        `koanf:"store_dir"`
	BufferSize                 int           `koanf:"buffer_size"`
	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`
}

// AuditConfig holds settings for the security audit trail. The trail
// records authentication and profile events to the DuckDB database in
// serve mode; the shell and one-shot commands never write to it.
//
// Environment Variables:
//   - AUDIT_ENABLED: enable the audit trail (default: true)
//   - AUDIT_RETENTION_DAYS: days to keep audit events (default: 90)
//   - AUDIT_BUFFER_SIZE: async write buffer size (default: 256)
type AuditConfig struct {
	Enabled       bool `koanf:"enabled"`
	RetentionDays int  `koanf:"retention_days"`
	BufferSize    int  `koanf:"buffer_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: console or json.
	// Console is the default because the interactive shell is the
	// primary surface; serve deployments should set json.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// IsProduction returns true if the application is running in
// production mode, as set by the ENVIRONMENT variable.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in
// development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}
