// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

//go:build !nats

package main

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/godshot/godshot/internal/config"
	"github.com/godshot/godshot/internal/events"
)

// newNATSTransport reports that NATS support is not compiled into this
// binary. initEvents falls back to the in-process transport.
func newNATSTransport(_ *config.Config, _ watermill.LoggerAdapter) (*events.EmbeddedServer, message.Publisher, message.Subscriber, error) {
	return nil, nil, nil, events.ErrNATSNotEnabled
}
