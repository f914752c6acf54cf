// Package realtime fans planning events out to connected websocket clients.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Client represents a single websocket client connection.
// The network conn itself is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub maintains active connections per vault and broadcasts events to them.
type Hub struct {
	mu             sync.RWMutex
	vaultToClients map[string]map[Client]struct{}
	log            *slog.Logger
}

// NewHub returns an empty hub. A nil logger uses slog.Default.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		vaultToClients: make(map[string]map[Client]struct{}),
		log:            logger.With("component", "realtime"),
	}
}

// Register adds a client under a vault ID.
func (h *Hub) Register(vaultID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.vaultToClients[vaultID]; !ok {
		h.vaultToClients[vaultID] = make(map[Client]struct{})
	}
	h.vaultToClients[vaultID][client] = struct{}{}
}

// Unregister removes a client; the vault entry goes away with its last client.
func (h *Hub) Unregister(vaultID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.vaultToClients[vaultID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.vaultToClients, vaultID)
		}
	}
}

// Clients reports how many clients are registered for vaultID.
func (h *Hub) Clients(vaultID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.vaultToClients[vaultID])
}

// Broadcast sends a message to all clients of a vault. Clients whose write
// fails are cleaned up by their handler.
func (h *Hub) Broadcast(vaultID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.vaultToClients[vaultID] {
		if !c.Send(message) {
			h.log.Debug("websocket send failed", "vault_id", vaultID)
		}
	}
}

// Publish encodes event as JSON and broadcasts it on channel.
func (h *Hub) Publish(channel string, event any) {
	message, err := json.Marshal(event)
	if err != nil {
		h.log.Error("encode event", "error", err)
		return
	}
	h.Broadcast(channel, message)
}
