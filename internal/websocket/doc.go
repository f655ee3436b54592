// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

/*
Package websocket provides real-time push of brew activity to connected clients.

This package implements WebSocket support for broadcasting brew suggestions,
evaluation results, and learning statistics to connected frontend clients
(dashboards, shot timers, tablet UIs at the machine). It uses the
gorilla/websocket library with a hub-client architecture for efficient
message broadcasting.

Key Components:

  - Hub: Central message broker that manages client connections and broadcasts
  - Client: Represents a single WebSocket connection with read/write goroutines
  - Message: Typed message structure for different event types

Architecture:

The package implements a hub-and-spoke pattern:

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│          │         │         │
	│ Client1  │ Client2 │ Client3 │ Client4
	│          │         │         │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: Reads from WebSocket, handles pings
  - writePump: Writes to WebSocket, sends pongs

Message Types:

The following message types are supported:

  - brew_suggested: A suggestion was issued (state, action, mode)
  - brew_evaluated: A brew was rated (evaluation, computed reward)
  - stats_update: Learning statistics changed (total brews, epsilon)
  - ping/pong: Application-level keepalive

Brew events reach the hub through the event router: the events package
consumes published brew events and forwards them via Hub.Broadcast.

Usage Example - Server:

	import (
	    "github.com/godshot/godshot/internal/websocket"
	    "net/http"
	)

	// Create hub
	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)

	// WebSocket upgrade endpoint
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
	    // upgrade, then:
	    client := websocket.NewClient(hub, conn)
	    hub.Register <- client
	    client.Start()
	})

	// Broadcast a stats update
	hub.BroadcastStatsUpdate("alice", 120, 0.05, "2026-08-25T09:30:00Z")

Usage Example - Client (JavaScript):

	const ws = new WebSocket('ws://localhost:9330/ws');

	ws.onmessage = (event) => {
	    const msg = JSON.parse(event.data);

	    if (msg.type === 'brew_suggested') {
	        showSuggestion(msg.data.action); // grind, volume, dose
	    }

	    if (msg.type === 'brew_evaluated') {
	        showReward(msg.data.reward);
	    }

	    if (msg.type === 'stats_update') {
	        updateStatsDisplay(msg.data);
	    }
	};

Connection Lifecycle:

 1. Client connects via HTTP upgrade
 2. Hub registers client
 3. Client starts read/write goroutines
 4. Hub broadcasts messages to all clients
 5. Client disconnects (network error or explicit close)
 6. Hub unregisters client and cleans up

Thread Safety:

The package is fully thread-safe:
  - Hub uses a mutex for client map access
  - Channels coordinate goroutine communication
  - Each client has separate read/write goroutines
  - No shared mutable state between clients

Configuration:

WebSocket settings:
  - writeWait: 10 seconds (time allowed to write a message)
  - pongWait: 60 seconds (time allowed to read a pong)
  - pingPeriod: 54 seconds (ping interval, must be < pongWait)
  - maxMessageSize: 512 KB

See Also:

  - github.com/gorilla/websocket: Underlying WebSocket library
  - internal/api: WebSocket endpoint handler
  - internal/events: Brew event pipeline feeding the hub
*/
package websocket
