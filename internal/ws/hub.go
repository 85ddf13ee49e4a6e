// Package ws streams engine events to UI clients over websockets. The Hub
// satisfies the engine's listener interface, so wiring it up is just
// passing it as the monitor's Listener.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"scamshield/internal/logger"
	"scamshield/internal/risk"
	"scamshield/internal/types"
)

// Event is one engine notification as sent on the wire.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 60 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		// Local control surface, same trust domain as the engine.
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to all connected clients. Slow clients are dropped
// rather than allowed to back up the engine.
type Hub struct {
	log        *logrus.Entry
	broadcast  chan Event
	register   chan *client
	unregister chan *client

	mu      sync.Mutex
	clients map[*client]bool
}

func NewHub() *Hub {
	return &Hub{
		log:        logger.Component("ws"),
		broadcast:  make(chan Event, sendBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		clients:    make(map[*client]bool),
	}
}

// Run owns the client set until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.WithField("clients", n).Debug("client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.WithError(err).Error("marshaling event")
				continue
			}
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ServeHTTP upgrades the connection and attaches it to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register <- c
	go h.writePump(c)
	go h.readPump(c)
}

// publish enqueues without blocking; if the hub loop is saturated the
// event is dropped, the register endpoint remains the source of truth.
func (h *Hub) publish(eventType string, payload interface{}) {
	ev := Event{Type: eventType, Timestamp: time.Now(), Payload: payload}
	select {
	case h.broadcast <- ev:
	default:
		h.log.WithField("type", eventType).Warn("event queue full, dropping")
	}
}

// Engine listener surface.

func (h *Hub) OnModeChange(mode types.MonitoringMode) {
	h.publish("mode_change", map[string]types.MonitoringMode{"mode": mode})
}

func (h *Hub) OnSegment(seg types.Segment) {
	h.publish("segment", seg)
}

func (h *Hub) OnRiskUpdate(current risk.Current) {
	h.publish("risk_update", current)
}

func (h *Hub) OnEscalation(level risk.Level) {
	h.publish("escalation", map[string]risk.Level{"level": level})
}

func (h *Hub) writePump(c *client) {
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

// readPump drains client frames; the surface is broadcast-only, so
// anything received is discarded and only errors matter.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
