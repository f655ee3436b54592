// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/godshot/godshot/internal/brew"
	"github.com/godshot/godshot/internal/metrics"
)

// Publisher wraps a Watermill publisher with resilience patterns.
// It provides an optional circuit breaker and a closed-state guard, and
// works with any transport (in-process GoChannel or NATS JetStream).
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	mu             sync.RWMutex
	closed         bool
	logger         watermill.LoggerAdapter
}

// NewPublisher wraps the given Watermill publisher.
func NewPublisher(pub message.Publisher, logger watermill.LoggerAdapter) (*Publisher, error) {
	if pub == nil {
		return nil, ErrNilPublisher
	}
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	return &Publisher{
		publisher: pub,
		logger:    logger,
	}, nil
}

// SetCircuitBreaker configures the circuit breaker for publish operations.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[interface{}]) {
	p.circuitBreaker = cb
}

// Publish sends a message to the specified topic with circuit breaker protection.
func (p *Publisher) Publish(ctx context.Context, topic string, msg *message.Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPublisherClosed
	}
	p.mu.RUnlock()

	var err error

	if p.circuitBreaker != nil {
		_, err = p.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, p.publisher.Publish(topic, msg)
		})
	} else {
		err = p.publisher.Publish(topic, msg)
	}

	if err == nil {
		metrics.RecordEventPublished(topic)
	}

	return err
}

// PublishEvent serializes and publishes a brew event.
// This is a convenience method that handles serialization.
func (p *Publisher) PublishEvent(ctx context.Context, event *BrewEvent) error {
	data, err := SerializeEvent(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(event.EventID, data)
	msg.Metadata.Set("username", event.Username)
	msg.Metadata.Set("type", event.Type)
	if event.Mode != "" {
		msg.Metadata.Set("mode", event.Mode)
	}

	return p.Publish(ctx, event.Topic(), msg)
}

// PublishSuggested builds and publishes a suggestion event.
func (p *Publisher) PublishSuggested(ctx context.Context, username string, state brew.State, action brew.Action, mode string) error {
	return p.PublishEvent(ctx, NewSuggestedEvent(username, state, action, mode))
}

// PublishEvaluated builds and publishes an evaluation event.
func (p *Publisher) PublishEvaluated(ctx context.Context, username string, state brew.State, action brew.Action, eval brew.Evaluation, reward float64) error {
	return p.PublishEvent(ctx, NewEvaluatedEvent(username, state, action, eval, reward))
}

// Close gracefully shuts down the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	return p.publisher.Close()
}

// WatermillPublisher returns the underlying Watermill publisher.
// This is useful for passing to Watermill components that require
// the native message.Publisher interface.
func (p *Publisher) WatermillPublisher() message.Publisher {
	return p.publisher
}
