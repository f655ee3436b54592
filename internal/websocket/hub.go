// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/godshot/godshot/internal/logging"
	"github.com/godshot/godshot/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g. SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was
	// exceeded before the hub observed a plain cancellation.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types pushed to connected clients.
const (
	MessageTypeBrewSuggested = "brew_suggested"
	MessageTypeBrewEvaluated = "brew_evaluated"
	MessageTypeStatsUpdate   = "stats_update"
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
)

// Message represents a WebSocket message.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run starts the hub (blocks forever, no context support).
//
// Deprecated: Use RunWithContext for supervised operation.
func (h *Hub) Run() {
	for {
		// Lifecycle events are drained before broadcasts so the client set
		// is settled when a message fans out. Go's select picks randomly
		// among ready channels, so priority needs an explicit pre-select.
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// RunWithContext starts the hub with context support for graceful shutdown.
// This method is designed for use under suture supervision.
//
// When the context is canceled:
//  1. All connected clients are closed
//  2. The method returns ctx.Err()
//
// This lets a supervisor restart the hub without leaving orphaned
// connections behind.
//
// Channel priority, highest first: context cancellation, client lifecycle
// events (Register/Unregister), broadcast messages.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// addClient registers a client with the hub.
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.TrackWSConnection(true)
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

// removeClient unregisters a client and closes its send channel.
// Unregistering a client the hub does not know is a no-op.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	_, known := h.clients[client]
	if known {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if known {
		metrics.TrackWSConnection(false)
		logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// logGracefulShutdown closes all clients and logs structured shutdown
// information.
//
// The log includes:
//   - component: "websocket-hub" for filtering
//   - reason: shutdown trigger (context_canceled, context_deadline)
//   - clients_closed: number of clients that were connected
//
// ctx.Err() is NOT logged as an error field because context cancellation
// is expected during graceful shutdown.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()

	h.closeAllClients()

	reason := getShutdownReason(ctx)

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// getShutdownReason maps the context error to a shutdown reason.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients fans a message out to every connected client.
// Clients are visited in id order so delivery order is stable across runs.
// A client whose send buffer is full is disconnected rather than allowed
// to block the hub.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	// Can't modify the map during iteration.
	var toRemove []*Client

	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.RecordWSMessageSent()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.TrackWSConnection(false)
		metrics.RecordWSError("send_buffer_full")
		logging.Warn().Uint64("client_id", client.id).Msg("dropped slow websocket client")
	}
}

// closeAllClients closes every connected client in id order.
// Called during shutdown.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
		metrics.TrackWSConnection(false)
	}
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// Broadcast queues a typed message for delivery to all connected clients.
// It never blocks: when the broadcast buffer is full the message is dropped.
// The event router's WebSocket forwarder pushes brew events through this
// method.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		metrics.RecordWSError("broadcast_buffer_full")
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// StatsUpdateData is the payload of a stats_update message.
type StatsUpdateData struct {
	Timestamp  string  `json:"timestamp"`
	Username   string  `json:"username,omitempty"`
	TotalBrews int     `json:"total_brews"`
	Epsilon    float64 `json:"epsilon"`
	LastBrew   string  `json:"last_brew,omitempty"`
}

// BroadcastStatsUpdate notifies all clients that learning statistics changed
// for the active user.
func (h *Hub) BroadcastStatsUpdate(username string, totalBrews int, epsilon float64, lastBrew string) {
	data := StatsUpdateData{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Username:   username,
		TotalBrews: totalBrews,
		Epsilon:    epsilon,
		LastBrew:   lastBrew,
	}

	message := Message{
		Type: MessageTypeStatsUpdate,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Debug().Int("clients", h.GetClientCount()).Int("total_brews", totalBrews).Msg("broadcast stats_update")
	default:
		metrics.RecordWSError("broadcast_buffer_full")
		logging.Warn().Msg("broadcast channel full, dropping stats_update message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
