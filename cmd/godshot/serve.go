// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/godshot/godshot/docs" // Import generated swagger docs
	"github.com/godshot/godshot/internal/api"
	"github.com/godshot/godshot/internal/audit"
	"github.com/godshot/godshot/internal/auth"
	"github.com/godshot/godshot/internal/logging"
	"github.com/godshot/godshot/internal/metrics"
	"github.com/godshot/godshot/internal/supervisor"
	"github.com/godshot/godshot/internal/supervisor/services"
	ws "github.com/godshot/godshot/internal/websocket"
)

// ServeCommand runs the HTTP API server under a supervisor tree.
func ServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API and WebSocket server. Services run under a
three-layer supervisor tree (data, messaging, api) so a crashing event
handler restarts without taking down the HTTP listener.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	app, err := openApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.cfg

	logging.Info().Msg("Starting Godshot with supervisor tree")
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("store_path", cfg.Storage.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Configuration loaded")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// Audit trail shares the DuckDB database with the brew history but
	// keeps its own table
	var auditLogger *audit.Logger
	if cfg.Audit.Enabled {
		auditStore := audit.NewDuckDBStore(app.db.SQL())
		if err := auditStore.CreateTable(ctx); err != nil {
			return fmt.Errorf("create audit table: %w", err)
		}
		auditLogger = audit.NewLogger(auditStore, &audit.Config{
			Enabled:       true,
			MinSeverity:   audit.SeverityInfo,
			RetentionDays: cfg.Audit.RetentionDays,
			BufferSize:    cfg.Audit.BufferSize,
		})
		auditLogger.StartCleanupRoutine(ctx)
		defer auditLogger.Close()
		logging.Info().Int("retention_days", cfg.Audit.RetentionDays).Msg("Audit trail enabled")
	}

	// WebSocket hub for real-time updates, created early so the event
	// router can broadcast through it
	wsHub := ws.NewHub()

	eventComps, err := initEvents(cfg, wsHub)
	if err != nil {
		return fmt.Errorf("initialize events: %w", err)
	}
	if eventComps != nil {
		defer eventComps.Shutdown(context.Background())
		app.engine.SetPublisher(eventComps.publisher)
	}

	// Resume the last session so the API is usable right after start
	if username, ok, err := app.engine.AutoLoadLastUser(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to resume last user session")
	} else if ok {
		logging.Info().Str("username", username).Msg("Resumed last user session")
		auditLogger.LogSessionResume(username)
	} else {
		logging.Info().Msg("No previous session, waiting for a user switch via the API")
	}

	var jwtManager *auth.JWTManager
	var creds *auth.Credentials

	mode, err := auth.ParseAuthMode(cfg.Security.AuthMode)
	if err != nil {
		return err
	}
	switch mode {
	case auth.AuthModeJWT:
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			return fmt.Errorf("initialize JWT manager: %w", err)
		}
		creds, err = auth.NewCredentials(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
		if err != nil {
			return fmt.Errorf("initialize admin credentials: %w", err)
		}
		logging.Info().Msg("JWT authentication enabled")
	case auth.AuthModeNone:
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  All endpoints are publicly accessible without authentication!")
		logging.Warn().Msg("  This mode should ONLY be used for:")
		logging.Warn().Msg("    - Local development")
		logging.Warn().Msg("    - Completely isolated private networks")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  NEVER use AUTH_MODE=none in production or on public networks!")
		logging.Warn().Msg("============================================================")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	middleware := auth.NewMiddleware(
		jwtManager,
		mode,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)

	handler := api.NewHandler(app.engine, app.db, cfg, jwtManager, creds, wsHub, version)
	if auditLogger != nil {
		handler.SetAuditLogger(auditLogger)
	}
	router := api.NewRouter(handler, middleware, &cfg.Security)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	metrics.SetAppInfo(version, runtime.Version())

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Data layer services
	tree.AddDataService(services.NewStoreGCService(app.store))
	tree.AddDataService(services.NewSnapshotService(app.engine, services.SnapshotConfig{
		SaveOnShutdown: true,
	}, logging.Logger()))

	// Messaging layer services
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	if eventComps != nil {
		tree.AddMessagingService(services.NewEventRouterService(eventComps.router))
		logging.Info().Msg("Event router added to supervisor tree")
	}

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	tree.AddAPIService(services.NewUptimeService(metrics.SetUptime, 15*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
	return nil
}
