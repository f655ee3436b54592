// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package services

import (
	"context"
	"fmt"
)

// MessageRouter interface matches *events.Router's blocking Run method.
//
// This interface allows the EventRouterService to work with the router
// without importing the events package.
type MessageRouter interface {
	Run(ctx context.Context) error
}

// EventRouterService wraps the event router as a supervised service.
//
// The router's Run method blocks until the context is canceled, then
// drains in-flight messages up to its close timeout. Handlers must be
// registered on the router before the service starts; suture restarts
// call Run again on the same router with its handlers intact.
//
// Example usage:
//
//	router, _ := events.NewRouter(nil, logger)
//	events.RegisterLoggingHandlers(router, subscriber, logger)
//	svc := services.NewEventRouterService(router)
//	tree.AddMessagingService(svc)
type EventRouterService struct {
	router MessageRouter
	name   string
}

// NewEventRouterService creates a new event router service wrapper.
func NewEventRouterService(router MessageRouter) *EventRouterService {
	return &EventRouterService{
		router: router,
		name:   "event-router",
	}
}

// Serve implements suture.Service.
//
// Run returns nil after a graceful drain, so the context error is
// returned in its place to mark the stop as shutdown-driven.
func (s *EventRouterService) Serve(ctx context.Context) error {
	if err := s.router.Run(ctx); err != nil {
		return fmt.Errorf("event router failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *EventRouterService) String() string {
	return s.name
}
