// Package events fans out catalog changes to websocket subscribers.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const ProductRating = "product.rating"

type Event struct {
	Type      string  `json:"type"`
	ProductID uint    `json:"product_id"`
	Rating    float64 `json:"rating"`
}

// Hub keeps the connected clients and relays published events to them.
// A nil *Hub drops everything.
type Hub struct {
	upgrader  websocket.Upgrader
	mu        sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 100),
	}
}

// Run writes queued messages to every client until ctx is done. It is the
// only writer on the connections.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					slog.Debug("websocket write failed", "remote", conn.RemoteAddr(), "error", err)
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues ev for delivery. It never blocks; when the queue is full
// the event is dropped.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	message, err := json.Marshal(ev)
	if err != nil {
		slog.Error("encode event", "error", err)
		return
	}
	select {
	case h.broadcast <- message:
	default:
		slog.Warn("event queue full, dropping event", "type", ev.Type, "product_id", ev.ProductID)
	}
}

// PublishRating announces a recomputed product rating.
func (h *Hub) PublishRating(productID uint, rating float64) {
	h.Publish(Event{Type: ProductRating, ProductID: productID, Rating: rating})
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and holds the connection until the client
// goes away. Incoming messages are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	slog.Debug("websocket client connected", "remote", conn.RemoteAddr())

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read failed", "error", err)
			}
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	slog.Debug("websocket client disconnected", "remote", conn.RemoteAddr())
}
