// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

/*
Package supervisor provides process supervision for Godshot using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of all long-running services in serve mode. It provides
Erlang/OTP-style supervision with automatic restart, failure isolation,
and graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure isolation:

	RootSupervisor ("godshot")
	├── DataSupervisor ("data-layer")
	│   ├── StoreGCService (Badger value-log GC)
	│   └── SnapshotService (periodic Q-table autosave)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocketHubService
	│   └── EventRouterService
	└── APISupervisor ("api-layer")
	    ├── HTTPServerService
	    └── UptimeService

This hierarchy ensures that:
  - A crashing event handler doesn't affect WebSocket connections
  - Storage maintenance failures don't impact API availability
  - Each layer can restart independently

# Key Features

Automatic Restart:
  - Crashed services are automatically restarted
  - Exponential backoff prevents restart storms
  - Configurable failure thresholds and decay rates

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Service starts, stops, failures, and restarts logged via slog
  - Event hooks via the sutureslog adapter

# Usage Example

Basic setup in serve mode:

	import (
	    "log/slog"
	    "github.com/godshot/godshot/internal/supervisor"
	    "github.com/godshot/godshot/internal/supervisor/services"
	)

	func run() error {
	    logger := slog.Default()
	    config := supervisor.DefaultTreeConfig()

	    tree, err := supervisor.NewSupervisorTree(logger, config)
	    if err != nil {
	        return err
	    }

	    // Add services to appropriate layers
	    tree.AddDataService(services.NewStoreGCService(store))
	    tree.AddMessagingService(services.NewWebSocketHubService(hub))
	    tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	    // Start the tree (blocks until context canceled)
	    return tree.Serve(ctx)
	}

Background operation:

	errChan := tree.ServeBackground(ctx)

	// Do other setup...

	if err := <-errChan; err != nil {
	    log.Printf("Supervisor error: %v", err)
	}

# Configuration

The TreeConfig controls restart behavior:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,              // Failures before backoff
	    FailureDecay:     30.0,             // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second, // Backoff duration
	    ShutdownTimeout:  10 * time.Second, // Per-service shutdown timeout
	}

Default values match suture's production-ready defaults.

# Failure Handling

The supervisor uses a failure counter with exponential decay:

 1. Each service failure increments the counter
 2. Counter decays exponentially over time (FailureDecay seconds)
 3. When counter exceeds FailureThreshold, supervisor enters backoff
 4. During backoff, restarts are delayed by FailureBackoff duration

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return error: Service crashed, will be restarted
  - Return suture.ErrDoNotRestart: Service completed, will not restart
  - Context canceled: Shutdown requested, return promptly

# What Is NOT Supervised

DuckDB is intentionally not supervised:
  - It's an embedded library, not a long-running service
  - Connections are managed by the database package
  - Crashes in DuckDB would require process restart anyway

The Badger store itself is opened and closed by the command layer; only
its value-log GC loop runs under supervision. The same applies to the
embedded NATS server in nats builds: it starts during event wiring,
before the tree, and stops after the tree drains.

The interactive shell never builds a tree. Supervision exists for serve
mode, where the process is expected to stay up unattended.

# Debugging Shutdown Issues

If services don't stop within the timeout:

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}

Common causes:
  - Goroutines not respecting context cancellation
  - Blocked network I/O without deadlines

# See Also

  - internal/supervisor/services: Service wrappers
  - github.com/thejerf/suture/v4: Underlying library
*/
package supervisor
