// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

// Package database persists the brew history in an embedded DuckDB file.
//
// Every suggested shot becomes one row in brew_records; the evaluation
// columns stay NULL until the user rates the shot. The Q-table itself is
// not stored here (see internal/storage). DuckDB holds the append-mostly
// history that stats and exports are computed from.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver

	"github.com/godshot/godshot/internal/config"
	"github.com/godshot/godshot/internal/logging"
)

// defaultMaxMemory caps DuckDB memory when the config leaves it unset.
const defaultMaxMemory = "512MB"

// DB wraps the DuckDB connection holding the brew history.
type DB struct {
	conn *sql.DB
	cfg  config.DatabaseConfig

	// Prepared statement cache for repeated queries
	stmtCache   map[string]*sql.Stmt
	stmtCacheMu sync.RWMutex
}

// New opens (or creates) the DuckDB database at cfg.Path and creates the
// schema. The parent directory of the database file is created if it
// does not exist.
func New(cfg config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	if cfg.MaxMemory == "" {
		cfg.MaxMemory = defaultMaxMemory
	}

	// Ensure parent directory exists for the database file.
	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	// Disable auto-install/auto-load to prevent hangs in restricted network
	// environments. The brew history schema needs no extensions.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:      conn,
		cfg:       cfg,
		stmtCache: make(map[string]*sql.Stmt),
	}

	db.configureConnectionPool()

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Debug().
		Str("path", cfg.Path).
		Int("threads", numThreads).
		Str("max_memory", cfg.MaxMemory).
		Msg("Brew history database opened")

	return db, nil
}

// configureConnectionPool sets connection pool parameters
//   - max_open: NumCPU() for parallelism
//   - max_idle: 2 for connection reuse
//   - max_lifetime: 1h to prevent stale connections
//   - max_idle_time: 5m for idle connection cleanup
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the brew history table and its indexes
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// tableCreationQueries returns the table creation SQL statements
func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS brew_records (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			ts TIMESTAMP NOT NULL,

			-- Machine parameters as suggested
			grind_size INTEGER NOT NULL,
			brew_volume DOUBLE NOT NULL,
			coffee_dose DOUBLE NOT NULL,

			-- Brewing context at suggestion time
			is_first_brew BOOLEAN NOT NULL,
			days_since_roast INTEGER NOT NULL,

			-- Evaluation columns, NULL until the shot is rated
			bitterness INTEGER,
			acidity INTEGER,
			taste_strength INTEGER,
			overall_experience INTEGER,
			channeling INTEGER,
			brew_time DOUBLE,
			evaluated_at TIMESTAMP
		);`,

		`CREATE INDEX IF NOT EXISTS idx_brew_records_username ON brew_records(username);`,
		`CREATE INDEX IF NOT EXISTS idx_brew_records_username_ts ON brew_records(username, ts);`,
	}
}

// Close closes all cached prepared statements and the connection.
// It performs a best-effort CHECKPOINT first to flush the WAL to the
// main database file so the next open does not have to replay it.
func (db *DB) Close() error {
	db.stmtCacheMu.Lock()
	for _, stmt := range db.stmtCache {
		if stmt != nil {
			closeQuietly(stmt)
		}
	}
	db.stmtCache = make(map[string]*sql.Stmt)
	db.stmtCacheMu.Unlock()

	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	cancel()

	return db.conn.Close()
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Checkpoint forces a WAL checkpoint
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.cfg.Path
}

// SQL exposes the underlying connection pool for components that keep
// their own tables in this database, such as the audit trail.
func (db *DB) SQL() *sql.DB {
	return db.conn
}

// ensureContext guarantees queries run with a deadline
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}

// prepared returns a cached prepared statement for query, preparing and
// caching it on first use. Cached statements live until Close.
func (db *DB) prepared(ctx context.Context, query string) (*sql.Stmt, error) {
	db.stmtCacheMu.RLock()
	stmt, ok := db.stmtCache[query]
	db.stmtCacheMu.RUnlock()
	if ok {
		return stmt, nil
	}

	db.stmtCacheMu.Lock()
	defer db.stmtCacheMu.Unlock()
	if stmt, ok := db.stmtCache[query]; ok {
		return stmt, nil
	}

	stmt, err := db.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	db.stmtCache[query] = stmt
	return stmt, nil
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
