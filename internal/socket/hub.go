// server/internal/socket/hub.go
package socket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub manages all connected dashboard WebSocket clients.
type Hub struct {
	// clients maps a client-chosen id to its connection.
	clients map[string]*websocket.Conn
	// mu guards clients; handlers register/unregister from many goroutines.
	mu sync.RWMutex
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
	}
}

// Register adds a new client to the Hub.
func (h *Hub) Register(clientID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[clientID] = conn
	log.Printf("WebSocket client registered: %s", clientID)
}

// Unregister removes a client from the Hub.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[clientID]; ok {
		delete(h.clients, clientID)
		log.Printf("WebSocket client unregistered: %s", clientID)
	}
}

// ShipmentEvent is the payload pushed to dashboards when a shipment's
// truck data changes, so open views can re-fetch and re-derive.
type ShipmentEvent struct {
	Type        string `json:"type"` // e.g., "shipment_updated"
	UniqueID    string `json:"uniqueID"`
	TruckNumber int    `json:"truckNumber,omitempty"`
}

// Broadcast sends an event to every connected client. A dead connection
// is dropped from the Hub; it is not an error for the caller.
func (h *Hub) Broadcast(event ShipmentEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("WebSocket broadcast marshal failed: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("WebSocket write to %s failed, dropping client: %v", id, err)
			conn.Close()
			delete(h.clients, id)
		}
	}
}
