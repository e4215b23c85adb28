// Package stream broadcasts emulator frames to websocket clients.
package stream

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/funkyboy/internal/controller"
)

// Message types, carried in the first byte of every binary message.
const (
	MsgInfo  byte = 1 // server -> client: width, height
	MsgFrame byte = 2 // server -> client: brotli compressed shade bytes
	MsgKey   byte = 3 // client -> server: key, pressed
)

// Path is where the hub accepts websocket connections.
const Path = "/ws"

const (
	sendBuffer = 16
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// InputFunc receives key events sent by clients.
type InputFunc func(key controller.Key, pressed bool)

// Hub keeps the set of connected clients. All client bookkeeping happens on
// the goroutine running Run.
type Hub struct {
	log   logrus.FieldLogger
	input InputFunc

	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once

	last    atomic.Pointer[[]byte]
	count   atomic.Int32
	dropped atomic.Uint64
}

// NewHub returns a hub. input may be nil, in which case key messages from
// clients are ignored.
func NewHub(log logrus.FieldLogger, input InputFunc) *Hub {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Hub{
		log:        log,
		input:      input,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 1),
		done:       make(chan struct{}),
	}
}

// Run services registrations and broadcasts until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int32(len(h.clients)))
			h.log.WithField("remote", c.remote).Info("stream client connected")
		case c := <-h.unregister:
			h.drop(c)
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.log.WithField("remote", c.remote).Warn("stream client too slow, dropping")
					h.drop(c)
				}
			}
		case <-h.done:
			for c := range h.clients {
				h.drop(c)
			}
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int32(len(h.clients)))
	h.dropped.Add(1)
}

// Broadcast queues msg for every client. It never blocks; when the hub is
// still busy with the previous message the older one is replaced.
func (h *Hub) Broadcast(msg []byte) {
	h.last.Store(&msg)
	for {
		select {
		case h.broadcast <- msg:
			return
		case <-h.done:
			return
		default:
		}
		select {
		case <-h.broadcast:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int { return int(h.count.Load()) }

// Dropped counts clients that disconnected or were cut off.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Close disconnects every client and stops Run.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Handler returns a mux serving the hub on Path.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, h)
	return mux
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade")
		return
	}
	c := &client{hub: h, conn: conn, remote: r.RemoteAddr, send: make(chan []byte, sendBuffer)}
	c.send <- []byte{MsgInfo, controller.Width, controller.Height}
	if last := h.last.Load(); last != nil {
		c.send <- *last
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	remote string
	send   chan []byte
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(64)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if len(msg) == 3 && msg[0] == MsgKey && c.hub.input != nil {
			if k := controller.Key(msg[1]); k.Valid() {
				c.hub.input(k, msg[2] != 0)
			}
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
			if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
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
