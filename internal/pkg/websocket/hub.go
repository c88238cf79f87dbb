// Package websocket pushes grade events to students who have their dashboard open.
package websocket

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Event is a payload addressed to every connection of one student
type Event struct {
	StudentID int64
	Payload   []byte
}

// Hub maintains the set of active clients and fans events out to them
type Hub struct {
	// Registered clients organized by student ID
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		broadcast:  make(chan Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx ends, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

// Publish queues payload for every connection of studentID. It satisfies
// notify.LiveFeed.
func (h *Hub) Publish(ctx context.Context, studentID int64, payload []byte) error {
	select {
	case h.broadcast <- Event{StudentID: studentID, Payload: payload}:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connected returns the number of open connections of studentID
func (h *Hub) Connected(studentID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[studentID])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.studentID]; !ok {
		h.clients[client.studentID] = make(map[*Client]bool)
	}
	h.clients[client.studentID][client] = true

	h.logger.Debug().Int64("studentID", client.studentID).Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.studentID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.studentID)
	}
	h.logger.Debug().Int64("studentID", client.studentID).Msg("Client unregistered")
}

func (h *Hub) deliver(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients[ev.StudentID] {
		select {
		case client.send <- ev.Payload:
		default:
			// Slow reader; drop the connection rather than block the hub.
			h.removeLocked(client)
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// leave unregisters client unless the hub has already stopped
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// join registers client unless the hub has already stopped
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}
