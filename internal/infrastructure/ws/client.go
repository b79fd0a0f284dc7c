package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client binds one live connection to a (room, player) seat. It holds
// a non-owning reference into the room; the game engine owns the seat.
type Client struct {
	conn     *websocket.Conn
	Message  chan *Message
	PlayerID string
	RoomID   string
}

func NewClient(conn *websocket.Conn, playerID, roomID string) *Client {
	return &Client{
		conn:     conn,
		Message:  make(chan *Message, 64), // buffered to avoid dead-locks on slow clients
		PlayerID: playerID,
		RoomID:   roomID,
	}
}

// inboundEnvelope mirrors Message for client-sent events.
type inboundEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Handler receives decoded client events and disconnect notices.
type Handler interface {
	HandleMessage(c *Client, msgType string, data json.RawMessage)
	HandleDisconnect(c *Client)
}

func (c *Client) ReadMessage(core *Core, handler Handler) {
	defer func() {
		core.Unregister() <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws read error (player %s): %v", c.PlayerID, err)
			}
			break
		}

		var env inboundEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.Deliver(NewError(c.RoomID, "BAD_MESSAGE", "malformed message"))
			continue
		}

		handler.HandleMessage(c, env.Type, env.Data)
	}
}

func (c *Client) WriteMessage() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Message:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error (player %s): %v", c.PlayerID, err)
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

// Deliver enqueues a message for this client, dropping it if the
// client's buffer is full rather than blocking the caller.
func (c *Client) Deliver(msg *Message) {
	select {
	case c.Message <- msg:
	default:
		log.Printf("ws buffer full, dropping %s for player %s", msg.Type, c.PlayerID)
	}
}
