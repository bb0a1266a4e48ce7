package websocket

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func newTestClient(hub *Hub, userID string) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan []byte, 16),
		UserID: userID,
	}
}

func waitForConnections(t *testing.T, hub *Hub, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		n := len(hub.clients[userID])
		hub.mu.RUnlock()
		if n == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("user %s never reached %d connections", userID, want)
}

func TestSendToUserFansOutToAllConnections(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := newTestClient(hub, "u1")
	b := newTestClient(hub, "u1")
	hub.register <- a
	hub.register <- b
	waitForConnections(t, hub, "u1", 2)

	confidence := 92
	hub.ExtractionStatusChanged("u1", "r1", "completed", &confidence)

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.send:
			var evt StatusEvent
			if err := json.Unmarshal(raw, &evt); err != nil {
				t.Fatalf("unmarshal event: %v", err)
			}
			if evt.Type != "EXTRACTION_STATUS" || evt.ReportID != "r1" || evt.Status != "completed" {
				t.Fatalf("unexpected event: %+v", evt)
			}
			if evt.Confidence == nil || *evt.Confidence != 92 {
				t.Fatalf("confidence not delivered: %+v", evt.Confidence)
			}
		case <-time.After(time.Second):
			t.Fatal("connection did not receive the event")
		}
	}
}

func TestSendToUserWithoutConnections(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	if hub.SendToUser("nobody", StatusEvent{Type: "EXTRACTION_STATUS"}) {
		t.Fatal("expected no delivery for a user with no connections")
	}
}

// Sending must stay safe while connections come and go: unregistering closes
// the send channel, and a send racing that close would panic.
func TestSendToUserDuringChurn(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c := newTestClient(hub, "u1")
			hub.register <- c
			hub.unregister <- c
		}
		close(done)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				hub.SendToUser("u1", StatusEvent{Type: "EXTRACTION_STATUS", ReportID: "r1", Status: "processing"})
			}
		}
	}()

	wg.Wait()
}
