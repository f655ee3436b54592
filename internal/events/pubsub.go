// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// PubSub combines the publisher and subscriber halves of a transport.
// The in-process GoChannel implements both; NATS uses separate values.
type PubSub interface {
	message.Publisher
	message.Subscriber
}

// NewGoChannelPubSub creates the in-process transport used when NATS is
// not enabled. Messages published with no active subscriber are dropped,
// which is the desired behavior for live UI notifications.
func NewGoChannelPubSub(bufferSize int64, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: bufferSize,
	}, logger)
}
