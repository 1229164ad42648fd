package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/liamwears/kinocatalog/internal/catalog"
	"github.com/liamwears/kinocatalog/internal/metrics"
)

const (
	wsSendBuffer   = 64
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsReadLimit    = 512
)

// EventSnapshot is the first message of every connection
const EventSnapshot = "snapshot"

// WSHandler pushes session state changes to the browser
type WSHandler struct {
	upgrader websocket.Upgrader
	logger   logrus.FieldLogger
}

// NewWSHandler creates a new WebSocket handler. Upgrades are only accepted
// from the serving origin.
func NewWSHandler(logger logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

type wsClient struct {
	conn    *websocket.Conn
	session *catalog.Session
	send    chan []byte
	dropped chan struct{}
	once    sync.Once
	logger  logrus.FieldLogger
}

// Serve handles GET /ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}

	c := &wsClient{
		conn:    conn,
		session: s,
		send:    make(chan []byte, wsSendBuffer),
		dropped: make(chan struct{}),
		logger:  h.logger.WithField("client_id", s.ID.String()),
	}

	metrics.WebSocketClients.Inc()
	c.push(catalog.Event{Type: EventSnapshot, Data: s.Snapshot()})
	unwatch := s.Watch(c.push)

	go c.writePump()
	c.readPump()

	unwatch()
	c.drop()
	metrics.WebSocketClients.Dec()
	c.logger.Debug("WebSocket client disconnected")
}

// push runs on whichever goroutine changed the state, so it never blocks.
// A client that cannot keep up is disconnected.
func (c *wsClient) push(e catalog.Event) {
	select {
	case <-c.dropped:
		return
	default:
	}

	payload, err := json.Marshal(e)
	if err != nil {
		c.logger.WithError(err).Error("WebSocket marshal failed")
		return
	}

	select {
	case c.send <- payload:
	default:
		c.logger.Warn("WebSocket client too slow, disconnecting")
		c.drop()
	}
}

func (c *wsClient) drop() {
	c.once.Do(func() { close(c.dropped) })
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.dropped:
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(time.Second),
			)
			return
		}
	}
}

func (c *wsClient) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(wsReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.session.Touch()
		return c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
