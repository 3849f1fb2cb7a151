package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ZerkerEOD/slotban/internal/models"
	"github.com/ZerkerEOD/slotban/pkg/debug"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Clients never send payloads, only control frames
	maxMessageSize = 4 * 1024

	// Messages queued per client before broadcasts to it are dropped
	sendBufferSize = 64
)

// Handler fans out events to every connected dashboard and overlay client
type Handler struct {
	upgrader websocket.Upgrader
	clients  map[uuid.UUID]*Client
	closed   bool
	mu       sync.RWMutex
}

// Client represents one connected subscriber
type Client struct {
	id        uuid.UUID
	handler   *Handler
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewHandler creates a fan-out handler. An empty allowedOrigin or "*" accepts
// connections from any origin.
func NewHandler(allowedOrigin string) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if allowedOrigin == "" || allowedOrigin == "*" || origin == "" {
					return true
				}
				return origin == allowedOrigin
			},
		},
		clients: make(map[uuid.UUID]*Client),
	}
}

// ServeWS upgrades the request and registers the connection as a subscriber
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		debug.Error("failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		id:      uuid.New(),
		handler: h,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
	}

	if !h.registerClient(client) {
		conn.Close()
		return
	}
	debug.Info("WebSocket client %s connected from %s", client.id, r.RemoteAddr)

	go client.writePump()
	go client.readPump()
}

// Broadcast sends msg to every client that can take it right now. Clients
// with a full send buffer are skipped.
func (h *Handler) Broadcast(msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		debug.Error("failed to marshal %s message: %v", msg.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case <-client.done:
		case client.send <- data:
		default:
			debug.Warning("skipping %s for client %s: send buffer full", msg.Type, client.id)
		}
	}
}

// ClientCount returns the number of registered subscribers
func (h *Handler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new connections
func (h *Handler) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[uuid.UUID]*Client)
	h.mu.Unlock()

	for _, client := range clients {
		client.close()
	}
	debug.Info("Closed %d WebSocket clients", len(clients))
}

func (h *Handler) registerClient(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	return true
}

// unregisterClient removes a client from the handler
func (h *Handler) unregisterClient(c *Client) {
	h.mu.Lock()
	if client, ok := h.clients[c.id]; ok && client == c {
		delete(h.clients, c.id)
		debug.Info("WebSocket client %s disconnected", c.id)
	}
	h.mu.Unlock()
}

// close stops the write pump, which closes the connection. Safe to call from
// either pump and from Handler.Close.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// readPump only exists to process control frames and notice disconnects
func (c *Client) readPump() {
	defer func() {
		c.handler.unregisterClient(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				debug.Warning("WebSocket client %s read error: %v", c.id, err)
			}
			return
		}
		// Client-to-server messages are not part of the protocol.
	}
}

// writePump pumps queued broadcasts to the connection and keeps it alive
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.handler.unregisterClient(c)
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
				time.Now().Add(writeWait),
			)
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				debug.Warning("WebSocket client %s write error: %v", c.id, err)
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
