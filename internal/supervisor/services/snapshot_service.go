// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SnapshotSaver is the slice of the brewing engine the autosave loop
// needs. CurrentUser reports the active session; Save persists its
// Q-table snapshot.
//
// Satisfied by *engine.Engine.
type SnapshotSaver interface {
	CurrentUser() string
	Save(ctx context.Context) error
}

// SnapshotConfig holds configuration for the snapshot autosave service.
type SnapshotConfig struct {
	// Interval is how often to persist the active Q-table.
	// Default: 5m
	Interval time.Duration

	// SaveOnShutdown triggers a final save when the service stops.
	SaveOnShutdown bool

	// SaveTimeout bounds a single save, including the shutdown save.
	// Default: 10s
	SaveTimeout time.Duration
}

// SnapshotService periodically persists the active user's Q-table.
//
// Evaluations already save after every update, so the autosave exists
// to bound data loss from epsilon changes and session switches that
// happen between evaluations. A cycle with no active session is
// skipped.
type SnapshotService struct {
	saver  SnapshotSaver
	config SnapshotConfig
	logger zerolog.Logger
	name   string
}

// NewSnapshotService creates a new snapshot autosave service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSnapshotService(saver SnapshotSaver, cfg SnapshotConfig, logger zerolog.Logger) *SnapshotService {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 10 * time.Second
	}
	return &SnapshotService{
		saver:  saver,
		config: cfg,
		logger: logger.With().Str("service", "snapshot").Logger(),
		name:   "snapshot-autosave",
	}
}

// Serve implements suture.Service.
//
// A failed save is logged and retried on the next tick rather than
// crashing the service; the engine also saves on every evaluation, so
// a missed autosave loses nothing durable.
func (s *SnapshotService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.config.Interval).
		Bool("save_on_shutdown", s.config.SaveOnShutdown).
		Msg("snapshot autosave running")

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.config.SaveOnShutdown {
				s.saveFinal()
			}
			return ctx.Err()

		case <-ticker.C:
			if s.saver.CurrentUser() == "" {
				continue
			}
			if err := s.save(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("autosave failed (will retry on schedule)")
			}
		}
	}
}

// save persists one snapshot under a bounded sub-context.
func (s *SnapshotService) save(ctx context.Context) error {
	saveCtx, cancel := context.WithTimeout(ctx, s.config.SaveTimeout)
	defer cancel()
	return s.saver.Save(saveCtx)
}

// saveFinal writes the shutdown snapshot. The serve context is already
// canceled at this point, so it runs under a fresh timeout context.
func (s *SnapshotService) saveFinal() {
	if s.saver.CurrentUser() == "" {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), s.config.SaveTimeout)
	defer cancel()

	if err := s.saver.Save(saveCtx); err != nil {
		s.logger.Warn().Err(err).Msg("shutdown snapshot failed")
		return
	}
	s.logger.Info().Msg("shutdown snapshot saved")
}

// String returns the service name for logging.
func (s *SnapshotService) String() string {
	return s.name
}
