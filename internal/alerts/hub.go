package alerts

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/stockpilot/pkg/logger"
)

// Timing
const (
	PingInterval = 30 * time.Second
	PongWait     = 2 * PingInterval
	WriteWait    = 10 * time.Second
	SendBuffer   = 16
)

// Hub pushes triggers to the websocket clients of the owning session
// ⭐ SSOT: 실시간 알림 전송은 여기서만
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}

	logger *logger.Logger
}

type client struct {
	sessionID string
	conn      *websocket.Conn
	send      chan Trigger
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
		},
		clients: make(map[string]map[*client]struct{}),
		logger:  log.Component("alerts.hub"),
	}
}

// Serve upgrades the request and streams the session's triggers.
// The upgrader has already answered the request when it fails.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{sessionID: sessionID, conn: conn, send: make(chan Trigger, SendBuffer)}
	h.register(c)

	go h.writeLoop(c)
	go h.readLoop(c)
	return nil
}

// Notify queues t for every connection of the alert's session.
// Slow clients drop messages instead of blocking the checker.
func (h *Hub) Notify(_ context.Context, t Trigger) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[t.Alert.SessionID] {
		select {
		case c.send <- t:
		default:
			h.logger.WithField("session_id", c.sessionID).Warn("Alert stream backlog full, dropping")
		}
	}
	return nil
}

// Deliver is Notify without a context, for bus listeners
func (h *Hub) Deliver(t Trigger) {
	_ = h.Notify(context.Background(), t)
}

// Clients returns the number of open connections for a session
func (h *Hub) Clients(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sid, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, sid)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.sessionID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.sessionID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.clients[c.sessionID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.sessionID)
	}
}

// readLoop only watches for pongs and close frames
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.WithField("session_id", c.sessionID).WithError(err).Debug("Alert stream read ended")
			}
			return
		}
	}
}

// writeLoop owns all writes to the connection
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case t, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteJSON(t); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
