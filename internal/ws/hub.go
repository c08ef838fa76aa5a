package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/sujalbistaa/petitions/internal/metrics"
)

// Event types pushed to feed subscribers.
const (
	EventPetitionCreated = "petition_created"
	EventPetitionDeleted = "petition_deleted"
	EventSupporterAdded  = "supporter_added"
)

// Event is the JSON envelope written to every subscriber.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans broadcast messages out to every connected client. Run owns the
// client set; everything else talks to it over channels.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	count      atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.updateCount()
		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer.
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.updateCount()
}

func (h *Hub) updateCount() {
	h.count.Store(int64(len(h.clients)))
	metrics.SetWebsocketClients(len(h.clients))
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Publish encodes an event and queues it for broadcast. It returns without
// blocking once the hub has stopped.
func (h *Hub) Publish(eventType string, data any) error {
	msg, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	select {
	case h.Broadcast <- msg:
	case <-h.done:
	}
	return nil
}
