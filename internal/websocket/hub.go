// Package websocket pushes extraction status transitions to connected
// clients so the UI can update without polling.
package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// StatusEvent is pushed to a user's connections when one of their report
// extractions changes state.
type StatusEvent struct {
	Type       string `json:"type"`
	ReportID   string `json:"reportId"`
	Status     string `json:"status"`
	Confidence *int   `json:"confidence,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// Hub maintains the set of active clients keyed by user. One user may hold
// several connections (multiple tabs or devices); events go to all of them.
type Hub struct {
	// Registered clients map: UserID -> connections
	clients map[string]map[*Client]bool

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]map[*Client]bool),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			log.Printf("🔌 User connected: %s (%d connections)", client.UserID, len(h.clients[client.UserID]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.UserID]; ok {
				if conns[client] {
					delete(conns, client)
					close(client.send)
					if len(conns) == 0 {
						delete(h.clients, client.UserID)
					}
					log.Printf("🔌 User disconnected: %s", client.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendToUser sends a message to every connection of one user. Returns true if
// at least one connection accepted it.
func (h *Hub) SendToUser(userID string, message interface{}) bool {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return false
	}

	// The read lock must cover the whole iteration: Run closes a client's
	// send channel under the write lock, so holding the read lock here
	// keeps the channels we send on open.
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for client := range h.clients[userID] {
		select {
		case client.send <- jsonMsg:
			delivered = true
		default:
			// Buffer full or client dead
		}
	}
	return delivered
}

// ExtractionStatusChanged implements the extraction pipeline's status
// listener: it fans the transition out to the report owner's connections.
func (h *Hub) ExtractionStatusChanged(userID, reportID, status string, confidence *int) {
	h.SendToUser(userID, StatusEvent{
		Type:       "EXTRACTION_STATUS",
		ReportID:   reportID,
		Status:     status,
		Confidence: confidence,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}
