// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

// Package events provides the brew event pipeline using Watermill, with an
// in-process transport by default and optional NATS JetStream.
//
// Every agent decision and every evaluation is published as a BrewEvent and
// consumed asynchronously, so the learning loop never blocks on slow
// consumers and new consumers can be added without touching the engine:
//
//	┌─────────────┐          ┌─────────────┐
//	│   Suggest   │          │  Evaluate   │
//	│  (engine)   │          │  (engine)   │
//	└──────┬──────┘          └──────┬──────┘
//	       │ brew.suggested        │ brew.evaluated
//	       └───────────┬───────────┘
//	                   ▼
//	         ┌──────────────────┐
//	         │    Publisher     │  ← circuit breaker, closed guard
//	         └────────┬─────────┘
//	                  │
//	                  ▼
//	         ┌──────────────────┐
//	         │    Transport     │  ← GoChannel (default) or JetStream (-tags nats)
//	         └────────┬─────────┘
//	                  │
//	                  ▼
//	         ┌──────────────────┐
//	         │      Router      │  ← recoverer, retry, permanent drop
//	         └────────┬─────────┘
//	                  │
//	                  ▼
//	         ┌──────────────────┐
//	         │WebSocketForwarder│  → live dashboard updates
//	         └──────────────────┘
//
// # Transports
//
// The default build wires everything through a GoChannel pub/sub, which
// lives in the same process and needs no broker. Building with -tags nats
// adds an embedded NATS JetStream server plus publisher and subscriber
// constructors for durable delivery across restarts, useful when several
// Godshot instances share one event stream.
//
// # Key Components
//
//   - BrewEvent: canonical event format for suggestions and evaluations
//   - Publisher: Watermill publisher with circuit breaker and closed-state guard
//   - Router: Watermill router with panic recovery, retry, and permanent drop
//   - WebSocketForwarder: consumer pushing decoded events to the websocket hub
//   - EmbeddedServer: embedded NATS JetStream instance (nats builds only)
//
// # Usage Example
//
//	pubsub := events.NewGoChannelPubSub(64, logger)
//
//	pub, err := events.NewPublisher(pubsub, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pub.SetCircuitBreaker(events.NewCircuitBreaker(
//	    events.DefaultCircuitBreakerConfig("event-publish")))
//	defer pub.Close()
//
//	router, err := events.NewRouter(nil, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := router.RegisterBroadcastHandlers(pubsub, hub); err != nil {
//	    log.Fatal(err)
//	}
//	go router.Run(ctx)
//
//	err = pub.PublishSuggested(ctx, "alice", state, action, "exploit")
package events
