// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package diag

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gviegas/xrcube/internal/log"
)

// Flusher is implemented by sinks that batch the matrices
// of a frame. Flush is called once the frame is complete.
type Flusher interface {
	Flush()
}

// Message is the JSON document a Hub sends to its clients
// once per flushed frame.
type Message struct {
	Session  string                  `json:"session,omitempty"`
	Seq      uint64                  `json:"seq"`
	Matrices map[string][4][4]string `json:"matrices"`
}

const (
	sendQueue    = 8
	writeTimeout = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Hub is a Sink that streams the diagnostic matrices to
// websocket clients. It is an http.Handler.
// Clients that cannot keep up miss frames rather than
// stalling the renderer.
type Hub struct {
	log *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	frame   Table
	session string
	seq     uint64
}

type client struct {
	conn *websocket.Conn
	send chan *Message
}

// NewHub creates a Hub.
func NewHub(l *zap.Logger) *Hub {
	return &Hub{
		log:     log.OrNop(l),
		clients: make(map[*client]struct{}),
	}
}

// SetSession sets the session identifier attached to
// subsequent messages.
func (h *Hub) SetSession(id string) {
	h.mu.Lock()
	h.session = id
	h.mu.Unlock()
}

// Show records m for the frame being built.
func (h *Hub) Show(slot Slot, m *mgl32.Mat4) { h.frame.Show(slot, m) }

// Flush sends the current frame to every client.
func (h *Hub) Flush() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}
	h.seq++
	msg := &Message{
		Session:  h.session,
		Seq:      h.seq,
		Matrices: make(map[string][4][4]string, NSlot),
	}
	for s := Slot(0); s < NSlot; s++ {
		if m, ok := h.frame.Get(s); ok {
			msg.Matrices[s.String()] = Rows(&m)
		}
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket connection
// and registers it as a client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("diag: upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan *Message, sendQueue)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("diag: client connected", zap.String("remote", conn.RemoteAddr().String()))

	done := make(chan struct{})
	go h.write(c, done)
	// Incoming messages are ignored; reading detects
	// disconnection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	<-done
	h.log.Debug("diag: client disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

func (h *Hub) write(c *client, done chan<- struct{}) {
	defer close(done)
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
	c.conn.Close()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	cs := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		cs = append(cs, c)
	}
	h.mu.Unlock()
	for _, c := range cs {
		h.remove(c)
	}
}
