package main

import (
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	identity string
}

// Hub tracks live connections and the broadcast group for each room code.
// It implements Notifier for the registry; it never looks inside a room.
type Hub struct {
	mu     sync.Mutex
	conns  map[string]*Client
	groups map[string]map[string]bool // room code -> identity set
}

func newHub() *Hub {
	return &Hub{
		conns:  make(map[string]*Client),
		groups: make(map[string]map[string]bool),
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c.identity] = c
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[c.identity] == c {
		delete(h.conns, c.identity)
		close(c.send)
	}
	for _, group := range h.groups {
		delete(group, c.identity)
	}
}

// sendLocked queues msg for one client, evicting it if the queue is full.
func (h *Hub) sendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.conns, c.identity)
		close(c.send)
	}
}

func (h *Hub) Send(identity string, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.conns[identity]; ok {
		h.sendLocked(c, msg)
	}
}

func (h *Hub) Broadcast(code string, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for identity := range h.groups[code] {
		if c, ok := h.conns[identity]; ok {
			h.sendLocked(c, msg)
		}
	}
}

func (h *Hub) Join(identity, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[code] == nil {
		h.groups[code] = make(map[string]bool)
	}
	h.groups[code][identity] = true
}

func (h *Hub) Leave(identity, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if group, ok := h.groups[code]; ok {
		delete(group, identity)
		if len(group) == 0 {
			delete(h.groups, code)
		}
	}
}

// DropRoom detaches every connection from the room's broadcast group. The
// connections themselves stay open.
func (h *Hub) DropRoom(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.groups, code)
}

// serveWS upgrades the connection, assigns it an ephemeral identity, and
// pumps client actions into the registry.
func serveWS(cfg *Config, reg *Registry, hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			identity: uuid.NewString(),
		}

		hub.addClient(client)
		logf(cfg, "SOCKS: Connection %s from %s", client.identity, realIP(r))

		go client.writePump()
		client.readPump(cfg, reg, hub)
	}
}

func (c *Client) readPump(cfg *Config, reg *Registry, hub *Hub) {
	defer func() {
		hub.removeClient(c)
		reg.Disconnect(c.identity)
		_ = c.conn.Close()
		logf(cfg, "SOCKS: Connection %s closed", c.identity)
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		code := strings.ToUpper(strings.TrimSpace(msg.Code))

		switch msg.Type {
		case "create-room":
			reg.CreateRoom(c.identity)
		case "join-room":
			reg.JoinRoom(code, c.identity, strings.TrimSpace(msg.Name))
		case "start-round":
			reg.StartRound(code, c.identity)
		case "submit-answer":
			if choice, ok := parseChoice(msg.Choice); ok {
				reg.SubmitAnswer(code, c.identity, choice)
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
