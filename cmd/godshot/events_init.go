// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/godshot/godshot/internal/config"
	"github.com/godshot/godshot/internal/events"
	"github.com/godshot/godshot/internal/logging"
	ws "github.com/godshot/godshot/internal/websocket"
)

// eventComponents bundles the event pipeline for serve mode: the
// optional embedded broker, the publisher the engine emits through and
// the router that forwards brew events to WebSocket clients.
type eventComponents struct {
	server     *events.EmbeddedServer
	publisher  *events.Publisher
	subscriber message.Subscriber
	router     *events.Router
}

// initEvents wires the event pipeline when events are enabled. The
// returned router has its broadcast handlers registered; the caller
// runs it under the supervisor and calls Shutdown after the tree has
// drained. Returns nil components when events are disabled.
//
// Transport selection: NATS when the configuration asks for an
// embedded or external server and the binary was built with -tags
// nats, otherwise the in-process Watermill GoChannel.
func initEvents(cfg *config.Config, hub *ws.Hub) (*eventComponents, error) {
	if !cfg.Events.Enabled {
		logging.Info().Msg("Event publishing disabled (EVENTS_ENABLED=false)")
		return nil, nil
	}

	logger := events.NewLoggerAdapter()
	comps := &eventComponents{}

	var (
		pub       message.Publisher
		sub       message.Subscriber
		usingNATS bool
	)

	if cfg.Events.EmbeddedServer || cfg.Events.URL != "" {
		server, natsPub, natsSub, err := newNATSTransport(cfg, logger)
		switch {
		case errors.Is(err, events.ErrNATSNotEnabled):
			logging.Info().Msg("NATS transport not compiled in, using in-process event transport (build with -tags nats for JetStream)")
		case err != nil:
			return nil, fmt.Errorf("initialize NATS transport: %w", err)
		default:
			comps.server = server
			pub, sub = natsPub, natsSub
			usingNATS = true
		}
	}

	if pub == nil {
		pubsub := events.NewGoChannelPubSub(int64(cfg.Events.BufferSize), logger)
		pub, sub = pubsub, pubsub
		logging.Info().Int("buffer_size", cfg.Events.BufferSize).Msg("In-process event transport ready")
	}

	publisher, err := events.NewPublisher(pub, logger)
	if err != nil {
		comps.Shutdown(context.Background())
		return nil, fmt.Errorf("create event publisher: %w", err)
	}
	comps.publisher = publisher
	comps.subscriber = sub

	// The circuit breaker only guards network hops; the in-process
	// transport cannot trip it.
	if usingNATS {
		publisher.SetCircuitBreaker(events.NewCircuitBreaker(events.DefaultCircuitBreakerConfig("event-publish")))
	}

	routerCfg := events.RouterConfig{
		CloseTimeout:         cfg.Events.RouterCloseTimeout,
		RetryMaxRetries:      cfg.Events.RouterRetryCount,
		RetryInitialInterval: cfg.Events.RouterRetryInitialInterval,
		RetryMaxInterval:     cfg.Events.RouterRetryInitialInterval * 10,
		RetryMultiplier:      2.0,
	}
	router, err := events.NewRouter(&routerCfg, logger)
	if err != nil {
		comps.Shutdown(context.Background())
		return nil, fmt.Errorf("create event router: %w", err)
	}
	comps.router = router

	if err := router.RegisterBroadcastHandlers(sub, hub); err != nil {
		comps.Shutdown(context.Background())
		return nil, fmt.Errorf("register broadcast handlers: %w", err)
	}

	logging.Info().
		Bool("nats", usingNATS).
		Int("retry_count", routerCfg.RetryMaxRetries).
		Msg("Event router ready")
	return comps, nil
}

// Shutdown releases the event transport. Call only after the
// supervisor tree has drained so the router service is no longer
// consuming.
func (c *eventComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}

	if c.router != nil {
		if err := c.router.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event router")
		}
	}
	if c.subscriber != nil {
		if err := c.subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event subscriber")
		}
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event publisher")
		}
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
		} else {
			logging.Info().Msg("Embedded NATS server stopped")
		}
	}
}
