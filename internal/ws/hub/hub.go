package hub

import (
	"sync"

	"github.com/gorilla/websocket"
)

type Connection struct {
	conn            *websocket.Conn
	send            chan []byte
	conversationIDs map[string]struct{}
	userID          string
	closeOnce       sync.Once
}

func (c *Connection) UserID() string { return c.userID }

type SubscribeCmd struct {
	c               *Connection
	conversationIDs []string
}

type BroadcastCmd struct {
	ConversationID string
	Payload        []byte
}

// Hub fans agent events out to websocket subscribers, one room per
// conversation. All room state is owned by the Run goroutine.
type Hub struct {
	register   chan *Connection
	unregister chan *Connection
	subscribe  chan SubscribeCmd
	broadcast  chan BroadcastCmd
	rooms      map[string]map[*Connection]struct{}
}

func NewConnection(conn *websocket.Conn, userID string) *Connection {
	return &Connection{
		conn:            conn,
		send:            make(chan []byte, 128),
		conversationIDs: make(map[string]struct{}),
		userID:          userID,
	}
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Connection, 64),
		unregister: make(chan *Connection, 64),
		subscribe:  make(chan SubscribeCmd, 64),
		broadcast:  make(chan BroadcastCmd, 256),
		rooms:      make(map[string]map[*Connection]struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			_ = c

		case c := <-h.unregister:
			for conversationID := range c.conversationIDs {
				room := h.rooms[conversationID]
				if room == nil {
					continue
				}
				delete(room, c)
				if len(room) == 0 {
					delete(h.rooms, conversationID)
				}
			}
			c.CloseSend()

		case cmd := <-h.subscribe:
			for _, conversationID := range cmd.conversationIDs {
				room := h.rooms[conversationID]
				if room == nil {
					room = make(map[*Connection]struct{})
					h.rooms[conversationID] = room
				}
				room[cmd.c] = struct{}{}
				cmd.c.conversationIDs[conversationID] = struct{}{}
			}

		case b := <-h.broadcast:
			room := h.rooms[b.ConversationID]
			if room == nil {
				continue
			}

			for c := range room {
				c.Send(b.Payload)
			}
		}
	}
}

func (h *Hub) Register(c *Connection) {
	h.register <- c
}

func (h *Hub) Unregister(c *Connection) {
	h.unregister <- c
}

func (h *Hub) Subscribe(c *Connection, conversationIDs []string) {
	h.subscribe <- SubscribeCmd{
		c:               c,
		conversationIDs: conversationIDs,
	}
}

func (h *Hub) Broadcast(conversationID string, payload []byte) {
	h.broadcast <- BroadcastCmd{
		ConversationID: conversationID,
		Payload:        payload,
	}
}

// Send drops the payload when the connection's buffer is full; a slow
// dashboard must not block the hub.
func (c *Connection) Send(b []byte) {
	select {
	case c.send <- b:
	default:
	}
}

func (c *Connection) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
