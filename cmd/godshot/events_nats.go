// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

//go:build nats

package main

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/godshot/godshot/internal/config"
	"github.com/godshot/godshot/internal/events"
	"github.com/godshot/godshot/internal/logging"
)

// newNATSTransport starts the embedded JetStream broker when
// configured and returns the NATS-backed Watermill publisher and
// subscriber. With EmbeddedServer disabled the configured URL is used
// as-is and the returned server is nil.
func newNATSTransport(cfg *config.Config, logger watermill.LoggerAdapter) (*events.EmbeddedServer, message.Publisher, message.Subscriber, error) {
	natsURL := cfg.Events.URL
	var server *events.EmbeddedServer

	if cfg.Events.EmbeddedServer {
		serverCfg := events.DefaultServerConfig()
		if cfg.Events.StoreDir != "" {
			serverCfg.StoreDir = cfg.Events.StoreDir
		}

		srv, err := events.NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		server = srv
		natsURL = srv.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	} else {
		logging.Info().Str("url", natsURL).Msg("Using external NATS server")
	}

	pub, err := events.NewNATSPublisher(events.DefaultPublisherConfig(natsURL), logger)
	if err != nil {
		shutdownNATSServer(server)
		return nil, nil, nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := events.NewNATSSubscriber(events.DefaultSubscriberConfig(natsURL), logger)
	if err != nil {
		if cerr := pub.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("Error closing NATS publisher")
		}
		shutdownNATSServer(server)
		return nil, nil, nil, fmt.Errorf("create NATS subscriber: %w", err)
	}

	return server, pub, sub, nil
}

func shutdownNATSServer(server *events.EmbeddedServer) {
	if server == nil {
		return
	}
	if err := server.Shutdown(context.Background()); err != nil {
		logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
	}
}
