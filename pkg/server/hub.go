package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/consilium/popcorn/pkg/middleware"
	"github.com/consilium/popcorn/pkg/store"
)

// StateMessage is pushed to WebSocket clients.
type StateMessage struct {
	Type    string      `json:"type"`
	Version uint64      `json:"version"`
	State   store.State `json:"state"`
}

// client serializes writes to one connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// hub fans store changes out to WebSocket clients. The store listener only
// signals; one goroutine snapshots and writes. Bursts coalesce into a single
// snapshot. Nothing is subscribed or started until the first client
// connects.
type hub struct {
	store    *store.Store
	timeout  time.Duration
	metrics  *middleware.Metrics
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}

	notify      chan struct{}
	done        chan struct{}
	startOnce   sync.Once
	closeOnce   sync.Once
	closed      bool
	unsubscribe func()
}

func newHub(s *store.Store, timeout time.Duration, m *middleware.Metrics, logger *slog.Logger) *hub {
	h := &hub{
		store:   s,
		timeout: timeout,
		metrics: m,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	return h
}

// start subscribes to the store and runs the broadcast loop. It runs once,
// on the first connection, and never after Close.
func (h *hub) start() bool {
	h.startOnce.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.closed {
			return
		}
		h.unsubscribe = h.store.Subscribe(h.signal)
		go h.loop()
	})
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.closed
}

// running reports whether the loop was started.
func (h *hub) running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.unsubscribe != nil && !h.closed
}

func (h *hub) signal() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

func (h *hub) loop() {
	for {
		select {
		case <-h.done:
			return
		case <-h.notify:
			h.broadcast()
		}
	}
}

func (h *hub) message() ([]byte, error) {
	return json.Marshal(StateMessage{
		Type:    "state",
		Version: h.store.Version(),
		State:   h.store.GetState(),
	})
}

// ServeHTTP upgrades the request, sends the current state, then keeps the
// connection until the peer goes away.
func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.start() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.RecordSubscribers(n)

	if data, err := h.message(); err == nil {
		if err := c.write(data, h.timeout); err != nil {
			h.remove(c)
			return
		}
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *hub) broadcast() {
	data, err := h.message()
	if err != nil {
		h.logger.Error("encode state failed", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data, h.timeout); err != nil {
			h.logger.Debug("dropping websocket client", "error", err)
			h.remove(c)
		}
	}
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
		h.metrics.RecordSubscribers(n)
	}
}

// ClientCount returns the number of connected clients.
func (h *hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the hub and disconnects every client.
func (h *hub) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		unsubscribe := h.unsubscribe
		clients := h.clients
		h.clients = make(map[*client]struct{})
		h.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
		close(h.done)

		for c := range clients {
			c.conn.Close()
		}
		h.metrics.RecordSubscribers(0)
	})
}
