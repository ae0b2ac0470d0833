// Package ws fans progression events (level-ups, achievement unlocks, bonus
// pool activity) out to connected WebSocket clients. The feed is push-only:
// client messages are read and discarded to keep the connection alive.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/habitloop/backend/internal/service"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster tracks connected clients and pushes events to all of them.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool

	checkOrigin func(*http.Request) bool
}

// NewBroadcaster creates a Broadcaster. checkOrigin may be nil to accept any
// origin.
func NewBroadcaster(checkOrigin func(*http.Request) bool) *Broadcaster {
	return &Broadcaster{
		clients:     make(map[*client]bool),
		checkOrigin: checkOrigin,
	}
}

// Publish sends a progression event to every connected client. Clients that
// cannot keep up are disconnected rather than allowed to stall the feed.
func (b *Broadcaster) Publish(ev service.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			log.Printf("ws client too slow, disconnecting")
			b.removeClient(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Handler upgrades the request to a WebSocket and registers the client on
// the feed.
func (b *Broadcaster) Handler(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: b.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	log.Printf("WebSocket client connected: %s", r.RemoteAddr)
	c := b.addClient(conn)

	go func() {
		defer func() {
			b.removeClient(c)
			log.Printf("WebSocket client disconnected: %s", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (b *Broadcaster) addClient(conn *websocket.Conn) *client {
	c := newClient(conn)
	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()
	return c
}

func (b *Broadcaster) removeClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}
