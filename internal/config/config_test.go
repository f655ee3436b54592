// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	// Storage defaults
	if cfg.Storage.Path == "" {
		t.Error("Storage.Path should not be empty by default")
	}
	if !strings.HasSuffix(cfg.Storage.Path, filepath.Join(".godshot", "badger")) {
		t.Errorf("Storage.Path = %q, want .godshot/badger suffix", cfg.Storage.Path)
	}
	if cfg.Storage.GCInterval != 10*time.Minute {
		t.Errorf("Storage.GCInterval = %v, want 10m", cfg.Storage.GCInterval)
	}
	if cfg.Storage.GCDiscardRatio != 0.5 {
		t.Errorf("Storage.GCDiscardRatio = %v, want 0.5", cfg.Storage.GCDiscardRatio)
	}

	// Database defaults
	if !strings.HasSuffix(cfg.Database.Path, "godshot.duckdb") {
		t.Errorf("Database.Path = %q, want godshot.duckdb suffix", cfg.Database.Path)
	}
	if cfg.Database.MaxMemory != "512MB" {
		t.Errorf("Database.MaxMemory = %q, want 512MB", cfg.Database.MaxMemory)
	}

	// Agent defaults
	if cfg.Agent.LearningRate != 0.1 {
		t.Errorf("Agent.LearningRate = %v, want 0.1", cfg.Agent.LearningRate)
	}
	if cfg.Agent.DiscountFactor != 0.95 {
		t.Errorf("Agent.DiscountFactor = %v, want 0.95", cfg.Agent.DiscountFactor)
	}
	if cfg.Agent.Epsilon != 0.1 {
		t.Errorf("Agent.Epsilon = %v, want 0.1", cfg.Agent.Epsilon)
	}
	if cfg.Agent.EpsilonDecay != 0.995 {
		t.Errorf("Agent.EpsilonDecay = %v, want 0.995", cfg.Agent.EpsilonDecay)
	}
	if cfg.Agent.MinEpsilon != 0.01 {
		t.Errorf("Agent.MinEpsilon = %v, want 0.01", cfg.Agent.MinEpsilon)
	}

	// Server defaults
	if cfg.Server.Port != 9330 {
		t.Errorf("Server.Port = %d, want 9330", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Environment != "development" {
		t.Errorf("Server.Environment = %q, want development", cfg.Server.Environment)
	}

	// Security defaults
	if cfg.Security.AuthMode != "jwt" {
		t.Errorf("Security.AuthMode = %q, want jwt", cfg.Security.AuthMode)
	}
	if cfg.Security.RateLimitReqs != 100 {
		t.Errorf("Security.RateLimitReqs = %d, want 100", cfg.Security.RateLimitReqs)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("Security.CORSOrigins = %v, want [*]", cfg.Security.CORSOrigins)
	}

	// Events defaults
	if !cfg.Events.Enabled {
		t.Error("Events.Enabled should be true by default")
	}
	if cfg.Events.URL != "nats://127.0.0.1:4222" {
		t.Errorf("Events.URL = %q, want nats://127.0.0.1:4222", cfg.Events.URL)
	}
	if cfg.Events.BufferSize != 64 {
		t.Errorf("Events.BufferSize = %d, want 64", cfg.Events.BufferSize)
	}

	// Audit defaults
	if !cfg.Audit.Enabled {
		t.Error("Audit.Enabled should be true by default")
	}
	if cfg.Audit.RetentionDays != 90 {
		t.Errorf("Audit.RetentionDays = %d, want 90", cfg.Audit.RetentionDays)
	}
	if cfg.Audit.BufferSize != 256 {
		t.Errorf("Audit.BufferSize = %d, want 256", cfg.Audit.BufferSize)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Storage
		{"BADGER_PATH", "storage.path"},
		{"STORAGE_GC_INTERVAL", "storage.gc_interval"},

		// Database
		{"DUCKDB_PATH", "database.path"},
		{"DUCKDB_MAX_MEMORY", "database.max_memory"},
		{"DUCKDB_THREADS", "database.threads"},

		// Agent
		{"AGENT_LEARNING_RATE", "agent.learning_rate"},
		{"AGENT_DISCOUNT_FACTOR", "agent.discount_factor"},
		{"AGENT_EPSILON", "agent.epsilon"},
		{"AGENT_EPSILON_DECAY", "agent.epsilon_decay"},
		{"AGENT_MIN_EPSILON", "agent.min_epsilon"},

		// Server
		{"HTTP_PORT", "server.port"},
		{"HTTP_HOST", "server.host"},
		{"HTTP_TIMEOUT", "server.timeout"},
		{"ENVIRONMENT", "server.environment"},

		// Security
		{"AUTH_MODE", "security.auth_mode"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"ADMIN_USERNAME", "security.admin_username"},
		{"RATE_LIMIT_REQUESTS", "security.rate_limit_reqs"},
		{"DISABLE_RATE_LIMIT", "security.rate_limit_disabled"},
		{"CORS_ORIGINS", "security.cors_origins"},

		// Events
		{"EVENTS_ENABLED", "events.enabled"},
		{"NATS_URL", "events.url"},
		{"NATS_EMBEDDED", "events.embedded_server"},

		// Audit
		{"AUDIT_ENABLED", "audit.enabled"},
		{"AUDIT_RETENTION_DAYS", "audit.retention_days"},
		{"AUDIT_BUFFER_SIZE", "audit.buffer_size"},

		// Logging
		{"LOG_LEVEL", "logging.level"},
		{"LOG_FORMAT", "logging.format"},

		// Unknown (should return empty)
		{"RANDOM_VAR", ""},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := envTransformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestFindConfigFile verifies config file discovery
func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	}()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	t.Run("no config file exists", func(t *testing.T) {
		os.Unsetenv(ConfigPathEnvVar)
		result := findConfigFile()
		if result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("logging:\n  level: info\n"), 0o644); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(configPath)

		os.Unsetenv(ConfigPathEnvVar)
		result := findConfigFile()
		if result != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom_config.yaml")
		if err := os.WriteFile(customPath, []byte("logging:\n  level: info\n"), 0o644); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		defer os.Remove(customPath)

		os.Setenv(ConfigPathEnvVar, customPath)
		defer os.Unsetenv(ConfigPathEnvVar)

		result := findConfigFile()
		if result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})

	t.Run("CONFIG_PATH env var with non-existent file", func(t *testing.T) {
		os.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		defer os.Unsetenv(ConfigPathEnvVar)

		result := findConfigFile()
		if result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

// TestLoadEnvVars tests loading configuration from environment variables
func TestLoadEnvVars(t *testing.T) {
	os.Clearenv()

	os.Setenv("AGENT_EPSILON", "0.25")
	os.Setenv("HTTP_PORT", "9000")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("DUCKDB_PATH", "/tmp/godshot-test.duckdb")
	os.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Verify overrides
	if cfg.Agent.Epsilon != 0.25 {
		t.Errorf("Agent.Epsilon = %v, want 0.25", cfg.Agent.Epsilon)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Database.Path != "/tmp/godshot-test.duckdb" {
		t.Errorf("Database.Path = %q, want /tmp/godshot-test.duckdb", cfg.Database.Path)
	}

	// Comma-separated slice handling
	wantOrigins := []string{"https://a.example", "https://b.example"}
	if len(cfg.Security.CORSOrigins) != len(wantOrigins) {
		t.Fatalf("Security.CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, wantOrigins)
	}
	for i, origin := range wantOrigins {
		if cfg.Security.CORSOrigins[i] != origin {
			t.Errorf("Security.CORSOrigins[%d] = %q, want %q", i, cfg.Security.CORSOrigins[i], origin)
		}
	}

	// Verify defaults are still applied for unset values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Agent.LearningRate != 0.1 {
		t.Errorf("Agent.LearningRate = %v, want 0.1 (default)", cfg.Agent.LearningRate)
	}
}

// TestLoadConfigFile tests loading configuration from a YAML file
func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
agent:
  epsilon: 0.3
  learning_rate: 0.2

server:
  port: 8888
  host: "127.0.0.1"

logging:
  level: "warn"
`
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	os.Clearenv()
	os.Setenv(ConfigPathEnvVar, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Agent.Epsilon != 0.3 {
		t.Errorf("Agent.Epsilon = %v, want 0.3", cfg.Agent.Epsilon)
	}
	if cfg.Agent.LearningRate != 0.2 {
		t.Errorf("Agent.LearningRate = %v, want 0.2", cfg.Agent.LearningRate)
	}
	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}

	// Unset values keep defaults
	if cfg.Agent.EpsilonDecay != 0.995 {
		t.Errorf("Agent.EpsilonDecay = %v, want 0.995 (default)", cfg.Agent.EpsilonDecay)
	}
}

// TestLoadEnvOverridesFile verifies that env vars beat the config file
func TestLoadEnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  port: 8888\n"), 0o644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	os.Clearenv()
	os.Setenv(ConfigPathEnvVar, configPath)
	os.Setenv("HTTP_PORT", "7777")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env over file)", cfg.Server.Port)
	}
}

// TestValidate exercises the validation rules against a known-good
// base configuration with one field broken at a time.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "empty storage path",
			mutate:  func(c *Config) { c.Storage.Path = "" },
			wantErr: "BADGER_PATH",
		},
		{
			name:    "gc discard ratio out of range",
			mutate:  func(c *Config) { c.Storage.GCDiscardRatio = 1.5 },
			wantErr: "STORAGE_GC_DISCARD_RATIO",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "DUCKDB_PATH",
		},
		{
			name:    "zero learning rate",
			mutate:  func(c *Config) { c.Agent.LearningRate = 0 },
			wantErr: "AGENT_LEARNING_RATE",
		},
		{
			name:    "learning rate above one",
			mutate:  func(c *Config) { c.Agent.LearningRate = 1.2 },
			wantErr: "AGENT_LEARNING_RATE",
		},
		{
			name:    "negative epsilon",
			mutate:  func(c *Config) { c.Agent.Epsilon = -0.1 },
			wantErr: "AGENT_EPSILON",
		},
		{
			name:    "zero epsilon decay",
			mutate:  func(c *Config) { c.Agent.EpsilonDecay = 0 },
			wantErr: "AGENT_EPSILON_DECAY",
		},
		{
			name:    "min epsilon above epsilon",
			mutate:  func(c *Config) { c.Agent.MinEpsilon = 0.5 },
			wantErr: "AGENT_MIN_EPSILON",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "unknown environment",
			mutate:  func(c *Config) { c.Server.Environment = "sandbox" },
			wantErr: "ENVIRONMENT",
		},
		{
			name:    "unknown auth mode",
			mutate:  func(c *Config) { c.Security.AuthMode = "basic" },
			wantErr: "AUTH_MODE",
		},
		{
			name: "auth none in production",
			mutate: func(c *Config) {
				c.Security.AuthMode = "none"
				c.Server.Environment = "production"
			},
			wantErr: "AUTH_MODE=none is not allowed",
		},
		{
			name: "wildcard cors in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
				c.Security.AdminUsername = "admin"
				c.Security.AdminPassword = "s3cure-pass-word"
			},
			wantErr: "CORS_ORIGINS",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "tooshort" },
			wantErr: "at least 32 characters",
		},
		{
			name:    "placeholder jwt secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "CHANGEME-CHANGEME-CHANGEME-CHANGEME" },
			wantErr: "placeholder",
		},
		{
			name: "missing jwt secret in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.CORSOrigins = []string{"https://godshot.example"}
			},
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.Security.RateLimitReqs = 0 },
			wantErr: "RATE_LIMIT_REQUESTS",
		},
		{
			name: "disabled rate limit skips bounds",
			mutate: func(c *Config) {
				c.Security.RateLimitDisabled = true
				c.Security.RateLimitReqs = 0
			},
			wantErr: "",
		},
		{
			name:    "zero events buffer",
			mutate:  func(c *Config) { c.Events.BufferSize = 0 },
			wantErr: "EVENTS_BUFFER_SIZE",
		},
		{
			name: "disabled events skip bounds",
			mutate: func(c *Config) {
				c.Events.Enabled = false
				c.Events.BufferSize = 0
			},
			wantErr: "",
		},
		{
			name:    "zero audit retention",
			mutate:  func(c *Config) { c.Audit.RetentionDays = 0 },
			wantErr: "AUDIT_RETENTION_DAYS",
		},
		{
			name: "disabled audit skips bounds",
			mutate: func(c *Config) {
				c.Audit.Enabled = false
				c.Audit.RetentionDays = 0
			},
			wantErr: "",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"Production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("env "+tt.env, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Server.Environment = tt.env
			if got := cfg.IsProduction(); got != tt.want {
				t.Errorf("IsProduction() with %q = %v, want %v", tt.env, got, tt.want)
			}
		})
	}
}
