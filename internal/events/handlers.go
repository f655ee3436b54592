// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package events

import (
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/godshot/godshot/internal/metrics"
)

// Broadcaster receives decoded events for fan-out to connected clients.
// The websocket hub implements this; the indirection keeps the event
// pipeline independent of the transport pushing to browsers.
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// WebSocketForwarder consumes brew events and pushes them to the
// broadcaster so connected dashboards update live.
//
// This handler is designed to work with the Router's middleware stack:
//   - Recoverer handles panics
//   - Retry handles transient failures
//   - Permanent drop acks malformed messages
type WebSocketForwarder struct {
	broadcaster Broadcaster
	logger      watermill.LoggerAdapter

	// Metrics
	messagesReceived  atomic.Int64
	messagesForwarded atomic.Int64
	parseErrors       atomic.Int64
	lastMessageTime   atomic.Value // stores time.Time
}

// NewWebSocketForwarder creates a forwarder pushing into the given broadcaster.
func NewWebSocketForwarder(b Broadcaster, logger watermill.LoggerAdapter) (*WebSocketForwarder, error) {
	if b == nil {
		return nil, ErrNilBroadcaster
	}
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	f := &WebSocketForwarder{
		broadcaster: b,
		logger:      logger,
	}
	f.lastMessageTime.Store(time.Time{})

	return f, nil
}

// Handle processes a single brew event message.
// This is the handler function passed to Router.AddConsumerHandler.
//
// Error handling:
//   - Parse errors return PermanentError (acked, never retried)
//   - Broadcast never fails; slow clients are the hub's problem
func (f *WebSocketForwarder) Handle(msg *message.Message) error {
	startTime := time.Now()
	f.messagesReceived.Add(1)
	f.lastMessageTime.Store(startTime)

	event, err := DeserializeEvent(msg.Payload)
	if err != nil {
		f.parseErrors.Add(1)
		metrics.RecordEventParseFailure()
		f.logger.Error("Failed to parse message", err, watermill.LogFields{
			"message_uuid": msg.UUID,
		})
		// No point retrying malformed JSON
		return NewPermanentError("event parse error", err)
	}
	event.EnsureSchemaVersion()

	metrics.RecordEventConsumed(event.Topic())
	f.broadcaster.Broadcast("brew_"+event.Type, event)
	f.messagesForwarded.Add(1)
	metrics.RecordEventProcessing(time.Since(startTime))

	return nil
}

// Forwarded returns how many events have been pushed to the broadcaster.
func (f *WebSocketForwarder) Forwarded() int64 {
	return f.messagesForwarded.Load()
}

// RegisterBroadcastHandlers subscribes a forwarder to both brew topics.
// One handler per topic: the in-process transport has no wildcard
// subscriptions, so brew.suggested and brew.evaluated are bound separately.
func (r *Router) RegisterBroadcastHandlers(sub message.Subscriber, b Broadcaster) error {
	forwarder, err := NewWebSocketForwarder(b, r.logger)
	if err != nil {
		return err
	}

	r.AddConsumerHandler("ws-brew-suggested", TopicBrewSuggested, sub, forwarder.Handle)
	r.AddConsumerHandler("ws-brew-evaluated", TopicBrewEvaluated, sub, forwarder.Handle)

	return nil
}
