package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Vodeneev/oddsarchive/internal/pkg/ingest"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 64
)

// Hub fans service events out to websocket clients.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]bool
	broadcast chan ingest.Event
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		broadcast: make(chan ingest.Event, 256),
	}
}

// Run delivers published events until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.removeLocked(c)
			}
			h.mu.Unlock()
			return

		case e := <-h.broadcast:
			data, err := json.Marshal(e)
			if err != nil {
				slog.Error("Failed to marshal event", "type", e.Type, "error", err)
				continue
			}
			h.mu.Lock()
			for c := range h.clients {
				if !c.wants(e.Type) {
					continue
				}
				select {
				case c.send <- data:
				default:
					slog.Warn("Websocket client too slow, dropping it")
					h.removeLocked(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues e for delivery. It never blocks; events are dropped when
// the queue is full.
func (h *Hub) Publish(e ingest.Event) {
	select {
	case h.broadcast <- e:
	default:
		slog.Warn("Event queue full, dropping event", "type", e.Type)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	slog.Debug("Websocket client registered", "clients", n)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu      sync.RWMutex
	filters map[ingest.EventType]bool
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		filters: make(map[ingest.EventType]bool),
	}
}

// wants reports whether the client subscribed to t; no filter means all.
func (c *Client) wants(t ingest.EventType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.filters) == 0 || c.filters[t]
}

type clientMessage struct {
	Type   string             `json:"type"`
	Events []ingest.EventType `json:"events"`
}

func (c *Client) handleMessage(message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		slog.Debug("Ignoring malformed client message", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch msg.Type {
	case "subscribe":
		c.filters = make(map[ingest.EventType]bool, len(msg.Events))
		for _, e := range msg.Events {
			c.filters[e] = true
		}
	case "unsubscribe":
		c.filters = make(map[ingest.EventType]bool)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("Websocket read error", "error", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
