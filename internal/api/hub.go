package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/observability"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsSendBuffer = 256
	wsReadLimit  = 512
)

// UpsertEvent is pushed to WebSocket clients after a record is cached.
type UpsertEvent struct {
	Type      string            `json:"type"`
	Kind      domain.EntityKind `json:"kind"`
	ID        string            `json:"id"`
	FetchedAt int64             `json:"fetchedAt"`
}

// Hub fans upsert events out to connected WebSocket clients.
// Clients that fall behind are disconnected.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*wsClient]bool
	closed  bool
}

type wsClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub. checkOrigin may be nil to accept any origin.
func NewHub(logger *zap.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger:  logger,
		clients: make(map[*wsClient]bool),
	}
}

// Notify broadcasts an upsert event for rec. It matches coordinator.Listener.
func (h *Hub) Notify(rec *domain.EntityRecord) {
	h.Broadcast(UpsertEvent{Type: "upsert", Kind: rec.Kind, ID: rec.ID, FetchedAt: rec.FetchedAt})
}

// Broadcast sends ev to every client without blocking.
func (h *Hub) Broadcast(ev UpsertEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn("marshal upsert event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			observability.DefaultMetrics.WSMessagesDropped.Inc()
			h.logger.Debug("dropping slow websocket client", zap.String("client", c.id))
			h.removeLocked(c)
		}
	}
}

// ServeHTTP upgrades the connection and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &wsClient{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()

	observability.DefaultMetrics.WSClients.Inc()
	h.logger.Debug("websocket client connected", zap.String("client", c.id), zap.Int("clients", n))

	go c.writePump()
	go c.readPump()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// removeLocked closes c.send once. Caller holds h.mu.
func (h *Hub) removeLocked(c *wsClient) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
	observability.DefaultMetrics.WSClients.Dec()
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and detects disconnects.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
