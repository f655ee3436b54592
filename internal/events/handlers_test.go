// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type broadcastCall struct {
	messageType string
	data        interface{}
}

// fakeBroadcaster records Broadcast calls for assertions.
type fakeBroadcaster struct {
	calls chan broadcastCall
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{calls: make(chan broadcastCall, 8)}
}

func (b *fakeBroadcaster) Broadcast(messageType string, data interface{}) {
	select {
	case b.calls <- broadcastCall{messageType: messageType, data: data}:
	default:
	}
}

func (b *fakeBroadcaster) next(t *testing.T) broadcastCall {
	t.Helper()
	select {
	case call := <-b.calls:
		return call
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for broadcast")
		return broadcastCall{}
	}
}

func TestNewWebSocketForwarder(t *testing.T) {
	t.Run("nil broadcaster rejected", func(t *testing.T) {
		_, err := NewWebSocketForwarder(nil, nil)
		if !errors.Is(err, ErrNilBroadcaster) {
			t.Errorf("Expected ErrNilBroadcaster, got %v", err)
		}
	})

	t.Run("valid broadcaster accepted", func(t *testing.T) {
		forwarder, err := NewWebSocketForwarder(newFakeBroadcaster(), nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if forwarder == nil {
			t.Fatal("Expected forwarder, got nil")
		}
	})
}

func TestWebSocketForwarder_Handle(t *testing.T) {
	broadcaster := newFakeBroadcaster()
	forwarder, err := NewWebSocketForwarder(broadcaster, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	event := NewSuggestedEvent("alice", testState(), testAction(), "exploit")
	data, err := SerializeEvent(event)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}

	if err := forwarder.Handle(message.NewMessage(event.EventID, data)); err != nil {
		t.Fatalf("Handle error: %v", err)
	}

	call := broadcaster.next(t)
	if call.messageType != "brew_suggested" {
		t.Errorf("Expected message type brew_suggested, got %s", call.messageType)
	}
	decoded, ok := call.data.(*BrewEvent)
	if !ok {
		t.Fatalf("Expected *BrewEvent payload, got %T", call.data)
	}
	if decoded.EventID != event.EventID {
		t.Errorf("Expected EventID=%s, got %s", event.EventID, decoded.EventID)
	}
	if got := forwarder.Forwarded(); got != 1 {
		t.Errorf("Expected Forwarded=1, got %d", got)
	}
}

func TestWebSocketForwarder_HandleParseError(t *testing.T) {
	broadcaster := newFakeBroadcaster()
	forwarder, err := NewWebSocketForwarder(broadcaster, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	err = forwarder.Handle(message.NewMessage("bad-msg", []byte("{not json")))
	if err == nil {
		t.Fatal("Expected error for malformed payload")
	}
	if !IsPermanentError(err) {
		t.Errorf("Expected permanent error, got %v", err)
	}
	if IsRetryableError(err) {
		t.Error("Parse failures must not be retryable")
	}
	if got := forwarder.Forwarded(); got != 0 {
		t.Errorf("Expected Forwarded=0, got %d", got)
	}
}

// TestRegisterBroadcastHandlers verifies both brew topics reach the
// broadcaster through a running router.
func TestRegisterBroadcastHandlers(t *testing.T) {
	logger := watermill.NopLogger{}
	router, err := NewRouter(nil, logger)
	if err != nil {
		t.Fatalf("NewRouter error: %v", err)
	}

	pubsub := NewGoChannelPubSub(8, logger)
	broadcaster := newFakeBroadcaster()

	if err := router.RegisterBroadcastHandlers(pubsub, broadcaster); err != nil {
		t.Fatalf("RegisterBroadcastHandlers error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	select {
	case <-router.RunAsync(ctx):
	case <-time.After(5 * time.Second):
		t.Fatal("Router did not start within timeout")
	}
	defer router.Close()

	pub, err := NewPublisher(pubsub, logger)
	if err != nil {
		t.Fatalf("NewPublisher error: %v", err)
	}

	if err := pub.PublishSuggested(ctx, "alice", testState(), testAction(), "baseline"); err != nil {
		t.Fatalf("PublishSuggested error: %v", err)
	}
	if err := pub.PublishEvaluated(ctx, "alice", testState(), testAction(), testEvaluation(), 0.2); err != nil {
		t.Fatalf("PublishEvaluated error: %v", err)
	}

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		call := broadcaster.next(t)
		got[call.messageType] = true
	}

	if !got["brew_suggested"] {
		t.Error("Expected brew_suggested broadcast")
	}
	if !got["brew_evaluated"] {
		t.Error("Expected brew_evaluated broadcast")
	}
}

func TestRegisterBroadcastHandlers_NilBroadcaster(t *testing.T) {
	router, err := NewRouter(nil, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewRouter error: %v", err)
	}
	defer router.Close()

	pubsub := NewGoChannelPubSub(8, watermill.NopLogger{})
	if err := router.RegisterBroadcastHandlers(pubsub, nil); err == nil {
		t.Error("Expected error for nil broadcaster")
	}
}
