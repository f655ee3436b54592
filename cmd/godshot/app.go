// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/godshot/godshot/internal/config"
	"github.com/godshot/godshot/internal/database"
	"github.com/godshot/godshot/internal/engine"
	"github.com/godshot/godshot/internal/learn"
	"github.com/godshot/godshot/internal/logging"
	"github.com/godshot/godshot/internal/storage"
)

// app bundles the components every command needs: configuration, the
// Badger snapshot store, the DuckDB brew history and the engine on top
// of them. Commands open it, do their work and Close it.
type app struct {
	cfg    *config.Config
	store  *storage.Store
	db     *database.DB
	engine *engine.Engine
}

// openApp loads configuration, initializes logging and opens the data
// stores. Quiet mode raises the log level to warn so engine logs do not
// interleave with shell prompts; an explicit LOG_LEVEL still wins.
func openApp(quiet bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if quiet && os.Getenv("LOG_LEVEL") == "" {
		cfg.Logging.Level = "warn"
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		if cerr := store.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("Error closing snapshot store")
		}
		return nil, fmt.Errorf("open brew history: %w", err)
	}

	eng := engine.New(store, db, learn.Config{
		LearningRate:   cfg.Agent.LearningRate,
		DiscountFactor: cfg.Agent.DiscountFactor,
		Epsilon:        cfg.Agent.Epsilon,
		EpsilonDecay:   cfg.Agent.EpsilonDecay,
		MinEpsilon:     cfg.Agent.MinEpsilon,
	})

	return &app{
		cfg:    cfg,
		store:  store,
		db:     db,
		engine: eng,
	}, nil
}

// Close releases the data stores in reverse open order.
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing brew history")
	}
	if err := a.store.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing snapshot store")
	}
}

// selectUser activates the profile a one-shot command acts on. An
// explicit username wins, otherwise the last active user is resumed.
func (a *app) selectUser(ctx context.Context, username string) error {
	if username != "" {
		return a.engine.SwitchUser(ctx, username)
	}

	_, ok, err := a.engine.AutoLoadLastUser(ctx)
	if err != nil {
		return fmt.Errorf("resume last user: %w", err)
	}
	if !ok {
		return errors.New("no user profile found (pass --user or run the shell once)")
	}
	return nil
}
