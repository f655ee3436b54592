// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

/*
Package main is the entry point for the Godshot application.

Godshot is a self-hosted espresso brewing assistant that learns each
user's taste through reinforcement learning. It suggests grind size,
brew volume and coffee dose for the beans being dialed in, collects
taste ratings after each shot and updates a per-user Q-table from the
resulting reward.

# Modes

The binary runs in three modes:

	godshot               # Interactive shell (the default)
	godshot suggest       # One-shot commands for scripting
	godshot serve         # HTTP API and WebSocket server

The shell and the one-shot commands open the data stores directly; the
server additionally runs the event pipeline and the supervisor tree.

# Application Architecture

Serve mode implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("godshot")
	├── DataSupervisor ("data-layer")
	│   ├── Badger value-log GC
	│   └── Q-table snapshot autosave
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (real-time updates)
	│   └── Event Router (Watermill)
	└── APISupervisor ("api-layer")
	    ├── HTTP Server (Chi router)
	    └── Uptime reporter

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Storage: Badger for Q-table snapshots and session state
 4. Database: DuckDB for the brew history and audit trail
 5. Engine: per-user Q-learning session on top of both stores
 6. Events: Watermill router with GoChannel or NATS transport
 7. Authentication: JWT or no-auth mode
 8. Supervisor Tree: Suture v4 process supervision
 9. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest
priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	HTTP_PORT=9330               # HTTP server port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=console           # json or console

	# Authentication (serve mode)
	AUTH_MODE=jwt                # jwt or none
	JWT_SECRET=<32+ chars>       # Required for JWT mode
	ADMIN_USERNAME=admin
	ADMIN_PASSWORD=<password>

	# Data locations
	BADGER_PATH=~/.godshot/badger
	DUCKDB_PATH=~/.godshot/godshot.duckdb

	# Agent hyperparameters
	AGENT_EPSILON=0.1
	AGENT_LEARNING_RATE=0.1

# Build Tags

Optional build tags enable additional functionality:

	go build ./cmd/godshot               # Standard build, in-process events
	go build -tags nats ./cmd/godshot    # Enable NATS JetStream events

Without the tag, serve mode transports brew events over an in-process
Watermill GoChannel. With the tag, an embedded NATS server (or an
external one via EVENTS_URL) carries the same events with JetStream
persistence.

# Signal Handling

Serve mode handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Broadcasts shutdown to WebSocket clients
 3. Waits for in-flight requests (10s timeout)
 4. Saves the active Q-table snapshot
 5. Flushes pending writes and closes the stores
 6. Reports any services that failed to stop

The shell treats SIGINT like the exit command and closes the stores
before leaving.

# Usage Examples

Dialing in a new bag from the shell:

	$ godshot
	(godshot) set_roast_date Jan 15
	(godshot) suggest
	(godshot) evaluate

Scripted use:

	godshot suggest --user alice --first-brew
	godshot evaluate --user alice --overall 9 --brew-time 28
	godshot export csv brews.csv

Server (JWT):

	export AUTH_MODE=jwt
	export JWT_SECRET=$(openssl rand -base64 32)
	export ADMIN_USERNAME=admin ADMIN_PASSWORD=secure-password
	godshot serve

# Port 9330

The default port 9330 reads as 93/30: a 93°C brew temperature and a
30 second shot, the classic espresso reference recipe.

# API Documentation

Swagger documentation is available at /swagger/index.html when the
server is running. Endpoints are organized into categories:

  - Core: Health checks and performance statistics
  - Auth: Login, logout and the audit trail
  - Session: Users, roast dates, history, statistics
  - Brewing: Suggestions, evaluations, recommendations
  - Realtime: WebSocket notifications

# See Also

  - internal/config: Configuration management
  - internal/engine: Brewing session engine
  - internal/learn: Q-learning agent
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
*/
package main
