// Package ws pushes snapshot updates to WebSocket clients.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/pipeline"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 16
	broadcastDepth = 64
)

// Message is the envelope every frame carries.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	// TypeSnapshot announces a new snapshot; the payload is a
	// pipeline.SnapshotEvent.
	TypeSnapshot = "snapshot"
	// TypeHello is the first frame on every connection.
	TypeHello = "hello"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected clients and broadcasts snapshot events to all of them.
// Slow clients drop frames rather than hold up the rest.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	greeting   func() any
	logger     *slog.Logger

	// done is closed when Run returns; pumps stop waiting on the loop then.
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a Hub. greeting, when non-nil, supplies the payload of the
// hello frame sent to each new client.
func NewHub(greeting func() any, logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, broadcastDepth),
		greeting:   greeting,
		logger:     logger.With(slog.String("component", "ws_hub")),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled, after
// closing every client.
func (h *Hub) Run(ctx context.Context) error {
	defer h.stopOnce.Do(func() { close(h.done) })
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", slog.Int("total_clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", slog.Int("total_clients", n))

		case frame := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					h.logger.Warn("dropping frame for slow client")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// join hands c to the event loop. It reports false once the loop has exited.
func (h *Hub) join(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave hands c back to the event loop, or gives up once the loop has exited
// and already closed every client.
func (h *Hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a frame of the given type for every client. It never
// blocks: when the queue is full the frame is dropped.
func (h *Hub) Broadcast(msgType string, payload []byte) {
	frame, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.Warn("broadcast marshal failed", slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- frame:
	default:
		h.logger.Warn("broadcast queue full, dropping frame", slog.String("type", msgType))
	}
}

// Name identifies the hub as a snapshot publisher.
func (h *Hub) Name() string { return "ws" }

// Publish broadcasts a summary of snap.
func (h *Hub) Publish(_ context.Context, snap domain.Snapshot) error {
	payload, err := json.Marshal(pipeline.SnapshotEvent{
		SnapshotID:  snap.ID,
		LastUpdated: snap.LastUpdated,
		Summary:     snap.Summary,
	})
	if err != nil {
		return fmt.Errorf("ws: marshal snapshot event: %w", err)
	}
	h.Broadcast(TypeSnapshot, payload)
	return nil
}

// Relay forwards every payload published on channel to the clients, so
// replicas that did not run the refresh still push it. It returns when ctx is
// cancelled or the subscription ends.
func (h *Hub) Relay(ctx context.Context, bus domain.SignalBus, channel string) error {
	msgs, err := bus.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("ws: relay %s: %w", channel, err)
	}
	h.logger.Info("relaying bus channel", slog.String("channel", channel))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-msgs:
			if !ok {
				return nil
			}
			h.Broadcast(TypeSnapshot, payload)
		}
	}
}

// HandleWS upgrades the request and registers the client.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", slog.String("error", err.Error()))
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	if !h.join(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	c.hello()

	go c.writePump()
	go c.readPump()
}

func (c *client) hello() {
	var payload any = map[string]any{}
	if c.hub.greeting != nil {
		payload = c.hub.greeting()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	frame, err := json.Marshal(Message{Type: TypeHello, Payload: data})
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// readPump discards client frames; it exists to process pongs and notice
// disconnects.
func (c *client) readPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
