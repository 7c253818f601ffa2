// Package push delivers best-effort real-time events over websockets.
// Delivery is fire-and-forget relative to persistence: a slow or gone
// client never affects stored state.
package push

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event is the wire format pushed to clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Client is one websocket connection of a user. A user may hold several.
type Client struct {
	ID     string
	UserID uint64
	Send   chan []byte
}

// Hub tracks connected clients and fans events out to a user's connections.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	deliver    chan *userMessage
	logger     *zap.Logger
	mu         sync.RWMutex
}

type userMessage struct {
	UserID uint64
	Event  Event
}

// NewHub creates a Hub. Run must be started on its own goroutine.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan *userMessage, 256),
		logger:     logger,
	}
}

// Run processes registrations and deliveries until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.deliver:
			h.mu.RLock()
			data, err := json.Marshal(msg.Event)
			if err != nil {
				h.logger.Warn("push marshal failed", zap.String("type", msg.Event.Type), zap.Error(err))
				h.mu.RUnlock()
				continue
			}
			for _, client := range h.clients {
				if client.UserID != msg.UserID {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToUser enqueues an event to every connection of the user. If the hub's
// delivery buffer is full the event is dropped; push is best-effort.
func (h *Hub) SendToUser(userID uint64, eventType string, payload interface{}) {
	msg := &userMessage{
		UserID: userID,
		Event:  Event{Type: eventType, Data: payload},
	}
	select {
	case h.deliver <- msg:
	default:
		h.logger.Warn("push buffer full, dropping event",
			zap.Uint64("user_id", userID), zap.String("type", eventType))
	}
}
