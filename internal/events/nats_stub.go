// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

//go:build !nats

package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EmbeddedServer is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to run an embedded JetStream broker; without the
// tag the in-process GoChannel transport is the only option.
type EmbeddedServer struct{}

// NewEmbeddedServer returns ErrNATSNotEnabled.
func NewEmbeddedServer(cfg *ServerConfig) (*EmbeddedServer, error) {
	return nil, ErrNATSNotEnabled
}

// ClientURL returns an empty string for the stub implementation.
func (s *EmbeddedServer) ClientURL() string {
	return ""
}

// Shutdown is a no-op stub.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	return nil
}

// IsRunning always reports false for the stub implementation.
func (s *EmbeddedServer) IsRunning() bool {
	return false
}

// JetStreamEnabled always reports false for the stub implementation.
func (s *EmbeddedServer) JetStreamEnabled() bool {
	return false
}

// NewNATSPublisher returns ErrNATSNotEnabled.
func NewNATSPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return nil, ErrNATSNotEnabled
}

// NewNATSSubscriber returns ErrNATSNotEnabled.
func NewNATSSubscriber(cfg SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return nil, ErrNATSNotEnabled
}
