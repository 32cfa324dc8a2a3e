// Package realtime pushes collection events and notifications to
// connected browsers over WebSocket. Every connection joins the room of
// its user; admins also receive notifications addressed to all admins.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

// Message types besides the collection event types.
const (
	TypeWelcome      = "welcome"
	TypeNotification = "notification"
)

// Message is the envelope of every frame sent to clients.
type Message struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Hub tracks connections by user.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[int64]map[*client]struct{}
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	admin  bool
	send   chan []byte
	once   sync.Once

	mu     sync.Mutex
	closed bool
}

// NewHub returns an empty hub. Origins are not checked; connections are
// authenticated by token before they reach the hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		rooms: make(map[int64]map[*client]struct{}),
	}
}

// Serve upgrades the request and attaches the connection to userID's room.
// It returns once the connection is registered.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int64, admin bool) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{hub: h, conn: conn, userID: userID, admin: admin, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go c.writePump()
	go c.readPump()

	c.enqueue(encode(TypeWelcome, map[string]any{"user_id": userID}))
	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	room, ok := h.rooms[c.userID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[c.userID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	metrics.WebSocketConnections.Inc()
	h.log.Debug("websocket connected", zap.Int64("user_id", c.userID))
}

// drop removes c and closes its send queue, which ends the write pump.
func (h *Hub) drop(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		if room, ok := h.rooms[c.userID]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, c.userID)
			}
		}
		h.mu.Unlock()

		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		metrics.WebSocketConnections.Dec()
		h.log.Debug("websocket disconnected", zap.Int64("user_id", c.userID))
	})
}

// Publish sends a message to every connection of userID.
func (h *Hub) Publish(userID int64, typ string, payload any) {
	msg := encode(typ, payload)
	if msg == nil {
		return
	}
	for _, c := range h.clients(func(c *client) bool { return c.userID == userID }) {
		c.enqueue(msg)
	}
}

// PublishAdmins sends a message to every admin connection.
func (h *Hub) PublishAdmins(typ string, payload any) {
	msg := encode(typ, payload)
	if msg == nil {
		return
	}
	for _, c := range h.clients(func(c *client) bool { return c.admin }) {
		c.enqueue(msg)
	}
}

// Notify forwards collection events to the owner's room.
func (h *Hub) Notify(_ context.Context, owner int64, ev inventory.Event) {
	h.Publish(owner, ev.Type, ev)
}

// Connections returns the number of open connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

// Close disconnects every client.
func (h *Hub) Close() {
	for _, c := range h.clients(func(*client) bool { return true }) {
		h.drop(c)
	}
}

func (h *Hub) clients(match func(*client) bool) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*client
	for _, room := range h.rooms {
		for c := range room {
			if match(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// enqueue queues msg without blocking. A client whose queue is full is
// too slow and gets disconnected.
func (c *client) enqueue(msg []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	slow := false
	select {
	case c.send <- msg:
	default:
		slow = true
	}
	c.mu.Unlock()

	if slow {
		c.hub.log.Warn("dropping slow websocket client", zap.Int64("user_id", c.userID))
		c.hub.drop(c)
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("websocket read", zap.Error(err))
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encode(typ string, payload any) []byte {
	data, err := json.Marshal(Message{Type: typ, Data: payload, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		return nil
	}
	return data
}
