package events

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

// Hub fans engine activity out to connected websocket observers. Publish
// never blocks: each observer has a small send buffer and observers that
// cannot keep up are disconnected.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// Publish broadcasts the event as a single JSON message to every observer.
func (h *Hub) Publish(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("events: marshal: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Observer cannot keep up; drop it rather than stall the engine.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

func (c *client) writePump(h *Hub) {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, nil)
}
