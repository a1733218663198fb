package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
)

// Task domain event types pushed to the owning user's clients.
const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"
)

type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TaskID    int       `json:"task_id"`
	CreatedAt time.Time `json:"created_at"`
}

type envelope struct {
	userID int
	event  Event
}

type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound task events for connected clients.
	events chan envelope

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		events:     make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Publish queues a task event for the owning user's connected clients.
// Delivery is best-effort; a full hub drops the event rather than stalling
// the request that produced it.
func (h *Hub) Publish(userID int, eventType string, taskID int) {
	e := envelope{
		userID: userID,
		event: Event{
			ID:        uuid.NewString(),
			Type:      eventType,
			TaskID:    taskID,
			CreatedAt: time.Now().UTC(),
		},
	}
	select {
	case h.events <- e:
	default:
		log.Printf("ws: dropping %s event for user %d", eventType, userID)
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case e := <-h.events:
			msgBytes, err := json.Marshal(e.event)
			if err != nil {
				log.Printf("ws: marshal event: %v", err)
				continue
			}
			for client := range h.clients {
				if client.userID != e.userID {
					continue
				}
				select {
				case client.send <- msgBytes:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}
