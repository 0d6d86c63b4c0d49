package events

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterRoutes mounts the live event stream endpoint.
func RegisterRoutes(r chi.Router, hub *Hub) {
	r.Get("/api/events", hub.handleWebSocket)
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("events: websocket upgrade: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(c)
	go c.writePump(h)

	// Observers only listen; the read loop exists to detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("events: websocket read: %v", err)
			}
			break
		}
	}
	h.remove(c)
	conn.Close()
}
