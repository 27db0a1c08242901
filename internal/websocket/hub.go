// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package websocket pushes session changes and KPI snapshots to dashboard
// clients. The hub owns the client set; slow consumers are dropped rather
// than allowed to backpressure the pipeline.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/pmoreau84/apiarius/internal/bus"
	"github.com/pmoreau84/apiarius/internal/logging"
	"github.com/pmoreau84/apiarius/internal/metrics"
	"github.com/pmoreau84/apiarius/internal/models"
)

// Message types pushed to dashboard clients.
const (
	MessageTypeSessionUpdate = "session_update"
	MessageTypeKPIUpdate     = "kpi_update"
	MessageTypeSummaryUpdate = "summary_update"
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
)

// Message is the envelope for every frame sent to a client.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and fans messages out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Serve runs the hub loop until the context is canceled, then closes every
// client and returns ctx.Err(). Selection is priority-ordered (shutdown,
// lifecycle, broadcast) so client state is consistent before any fan-out;
// Go's select picks randomly among ready channels otherwise.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Lifecycle events ahead of broadcasts.
		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) String() string { return "websocket-hub" }

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WSClients.Set(float64(n))
	logging.Info().Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WSClients.Set(float64(n))
	logging.Info().Int("total_clients", n).Msg("websocket client disconnected")
}

// broadcastToClients fans one message out in client-ID order. The stable
// order keeps delivery reproducible across runs; clients whose send buffer
// is full are dropped on the spot.
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

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Uint64("client_id", client.id).Msg("dropping slow websocket client")
	}
	if len(toRemove) > 0 {
		metrics.WSClients.Set(float64(len(h.clients)))
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
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
	}
	h.mu.Unlock()

	metrics.WSClients.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		AnErr("reason", ctx.Err()).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// BroadcastSessionChange pushes one session-change notification. Non-blocking;
// the frame is dropped when the broadcast queue is full.
func (h *Hub) BroadcastSessionChange(change bus.SessionChange) {
	h.enqueue(Message{Type: MessageTypeSessionUpdate, Data: change})
}

// BroadcastKPISnapshot pushes a full snapshot to every client.
func (h *Hub) BroadcastKPISnapshot(snap *models.KPISnapshot) {
	h.enqueue(Message{Type: MessageTypeKPIUpdate, Data: snap})
}

// BroadcastSummary pushes the executive summary to every client.
func (h *Hub) BroadcastSummary(sum models.AttackSummary) {
	h.enqueue(Message{Type: MessageTypeSummaryUpdate, Data: sum})
}

func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("message_type", message.Type).Msg("broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
