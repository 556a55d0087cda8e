package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/SmitUplenchwar2687/Rewind/internal/event"
)

const (
	// historySize is how many recent events a new client receives on connect.
	historySize  = 100
	writeTimeout = time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev tool.
	},
}

// Hub manages WebSocket clients and broadcasts capture and replay events.
// It implements event.Sink.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	history [][]byte
	log     zerolog.Logger
}

var _ event.Sink = (*Hub)(nil)

// NewHub creates a new WebSocket hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		log:     log,
	}
}

// HandleWebSocket upgrades the HTTP connection, replays recent history and
// registers the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	for _, msg := range h.history {
		if err := h.write(conn, msg); err != nil {
			h.mu.Unlock()
			conn.Close()
			return
		}
	}
	h.clients[conn] = true
	h.mu.Unlock()

	// Read loop keeps the connection alive and notices disconnects.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish broadcasts e to every connected client. Slow clients are dropped
// after writeTimeout so capture and replay never stall on the monitor.
func (h *Hub) Publish(e event.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket marshal failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = append(h.history, data)
	if len(h.history) > historySize {
		h.history = h.history[len(h.history)-historySize:]
	}
	for conn := range h.clients {
		if err := h.write(conn, data); err != nil {
			h.log.Debug().Err(err).Msg("dropping websocket client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// must hold h.mu
func (h *Hub) write(conn *websocket.Conn, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
