// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

/*
Package services provides suture.Service wrappers for Godshot components.

This package adapts application components to the suture v4 supervision
model, translating their lifecycle patterns (Run, ListenAndServe, ticker
loops) into suture's context-aware Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation to the Serve pattern
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

WebSocket Hub (WebSocketHubService):
  - Wraps websocket.Hub with context support
  - Handles client connection cleanup on shutdown

Event Router (EventRouterService):
  - Wraps events.Router message processing
  - Drains in-flight messages on shutdown

Storage GC (StoreGCService):
  - Wraps the Badger value-log GC loop
  - Reclaims space from superseded snapshot versions

Snapshot Autosave (SnapshotService):
  - Periodically persists the active user's Q-table
  - Optional final save during shutdown

Uptime Reporter (UptimeService):
  - Updates the uptime gauge on a fixed interval

# Usage Example

Creating and registering services:

	tree, _ := supervisor.NewSupervisorTree(logger, config)

	tree.AddDataService(services.NewStoreGCService(store))
	tree.AddDataService(services.NewSnapshotService(eng, services.SnapshotConfig{}, logger))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewEventRouterService(router))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	tree.Serve(ctx)

# Error Handling

Return values determine supervisor behavior:

	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

Services that do periodic work (SnapshotService, StoreGCService) treat
a failed cycle as a warning and keep running; only a broken component
justifies a restart.

# Component Interfaces

Each wrapper declares a minimal interface for the component it wraps
(HTTPServer, ContextHub, MessageRouter, GarbageCollector,
SnapshotSaver). The concrete types from net/http, internal/websocket,
internal/events, internal/storage and internal/engine satisfy them.
Tests substitute mocks.

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: Underlying supervision library
*/
package services
