package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestClient(hub *Hub, userID int) *Client {
	return &Client{hub: hub, send: make(chan []byte, 8), userID: userID}
}

func receiveEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.send:
		var e Event
		if err := json.Unmarshal(msg, &e); err != nil {
			t.Fatalf("Failed to decode event: %v", err)
		}
		return e
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
		return Event{}
	}
}

func TestHubDeliversToOwnerOnly(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := newTestClient(hub, 1)
	bob := newTestClient(hub, 2)
	hub.register <- alice
	hub.register <- bob

	hub.Publish(1, EventTaskCreated, 42)

	e := receiveEvent(t, alice)
	if e.Type != EventTaskCreated || e.TaskID != 42 {
		t.Errorf("Unexpected event %+v", e)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Errorf("Event missing id or timestamp: %+v", e)
	}

	select {
	case msg := <-bob.send:
		t.Errorf("Event leaked to another user: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDeliversToAllOwnerClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := newTestClient(hub, 1)
	second := newTestClient(hub, 1)
	hub.register <- first
	hub.register <- second

	hub.Publish(1, EventTaskDeleted, 7)

	for _, c := range []*Client{first, second} {
		e := receiveEvent(t, c)
		if e.Type != EventTaskDeleted || e.TaskID != 7 {
			t.Errorf("Unexpected event %+v", e)
		}
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub, 1)
	hub.register <- client
	hub.unregister <- client

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("Expected closed send channel after unregister")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for send channel to close")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	// No Run loop draining the channel; a burst past the buffer must not hang.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(1, EventTaskUpdated, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full hub")
	}
}
