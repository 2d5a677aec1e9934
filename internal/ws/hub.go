// Package ws pushes calculator changes to browser clients over websockets.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chromastudio/internal/calc"
	applog "chromastudio/internal/log"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1024
)

// Event is the JSON frame sent to clients.
type Event struct {
	Type      string `json:"type"`
	Code      string `json:"code,omitempty"`
	Payload   any    `json:"payload,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type message struct {
	code string
	data []byte
}

// Hub fans events out to connected clients. Run must be started before
// clients connect.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	count      atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		clients:    map[*Client]struct{}{},
		broadcast:  make(chan message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
		h.count.Store(0)
		close(h.done)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			applog.Debug(ctx, "websocket client registered", "client", c.id, "code", c.code)
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.count.Store(int64(len(h.clients)))
				applog.Debug(ctx, "websocket client unregistered", "client", c.id)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				if c.code != "" && msg.code != "" && c.code != msg.code {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					delete(h.clients, c)
					close(c.send)
					applog.Warn(ctx, "dropping slow websocket client", "client", c.id)
				}
			}
			h.count.Store(int64(len(h.clients)))
		}
	}
}

// Clients returns the number of registered clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// BroadcastEvent queues evt for every client subscribed to its code. Events
// are dropped when the hub has stopped or its queue is full.
func (h *Hub) BroadcastEvent(evt Event) {
	if evt.CreatedAt == 0 {
		evt.CreatedAt = time.Now().UnixMilli()
	}
	b, err := json.Marshal(evt)
	if err != nil {
		applog.Error(context.Background(), "marshal ws event", "error", err)
		return
	}
	select {
	case <-h.done:
	case h.broadcast <- message{code: evt.Code, data: b}:
	default:
		applog.Warn(context.Background(), "websocket broadcast queue full", "type", evt.Type)
	}
}

// CalcListener adapts calculator events for calc.Store.OnChange.
func (h *Hub) CalcListener() func(calc.Event) {
	return func(evt calc.Event) {
		h.BroadcastEvent(Event{
			Type:    "calc." + string(evt.Kind),
			Code:    evt.Code,
			Payload: evt.State,
		})
	}
}

// Client is one websocket connection, optionally filtered to a color code.
type Client struct {
	id   string
	code string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeWS upgrades the request and registers the client. The optional
// "code" query parameter limits the feed to one color code.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Error(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	c := &Client{
		id:   uuid.NewString(),
		code: strings.TrimSpace(r.URL.Query().Get("code")),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 128),
	}
	select {
	case hub.register <- c:
	case <-hub.done:
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
