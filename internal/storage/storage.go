// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

// Package storage persists per-user agent state in BadgerDB: learned
// value tables, user settings such as the bean roast date, the user
// registry, and the last active user.
//
// Key layout:
//
//	qtable:<username>   JSON value-table snapshot
//	settings:<username> JSON user settings
//	user:<username>     registration marker
//	lastuser            last active username
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/godshot/godshot/internal/config"
	"github.com/godshot/godshot/internal/logging"
)

// Key prefixes for BadgerDB storage
const (
	qtableKeyPrefix   = "qtable:"
	settingsKeyPrefix = "settings:"
	userKeyPrefix     = "user:"
	lastUserKey       = "lastuser"
)

// ErrEmptyUsername is returned when an operation is attempted with an
// empty username.
var ErrEmptyUsername = errors.New("username must not be empty")

// Store is a BadgerDB-backed persistence layer. All methods are safe
// for concurrent use.
type Store struct {
	db             *badger.DB
	gcInterval     time.Duration
	gcDiscardRatio float64
}

// Open opens (creating if necessary) the BadgerDB store at the
// configured path.
func Open(cfg config.StorageConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("storage path must not be empty")
	}
	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	return newStore(db, cfg), nil
}

// OpenInMemory opens an ephemeral in-memory store, for tests and
// throwaway sessions.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger db: %w", err)
	}

	return newStore(db, config.StorageConfig{
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}), nil
}

func newStore(db *badger.DB, cfg config.StorageConfig) *Store {
	gcInterval := cfg.GCInterval
	if gcInterval <= 0 {
		gcInterval = 10 * time.Minute
	}
	gcDiscardRatio := cfg.GCDiscardRatio
	if gcDiscardRatio <= 0 || gcDiscardRatio >= 1 {
		gcDiscardRatio = 0.5
	}

	return &Store{
		db:             db,
		gcInterval:     gcInterval,
		gcDiscardRatio: gcDiscardRatio,
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunGC runs BadgerDB value-log garbage collection on a ticker until
// the context is canceled. Intended to run under the supervision
// tree.
func (s *Store) RunGC(ctx context.Context) error {
	log := logging.With().Str("component", "storage").Logger()

	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			reclaimed := s.collectGarbage()
			if reclaimed > 0 {
				log.Debug().Int("files", reclaimed).Msg("Badger value log GC reclaimed files")
			}
		}
	}
}

// collectGarbage repeats value-log GC until Badger reports nothing
// left to rewrite, and returns the number of rewritten files.
func (s *Store) collectGarbage() int {
	reclaimed := 0
	for {
		err := s.db.RunValueLogGC(s.gcDiscardRatio)
		if err != nil {
			// badger.ErrNoRewrite when there is nothing to collect;
			// in-memory stores have no value log at all.
			return reclaimed
		}
		reclaimed++
	}
}
