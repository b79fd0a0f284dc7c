package ws

// outbound routes a message either to every member of a room or, when
// to is set, to a single player's connection.
type outbound struct {
	msg *Message
	to  string // playerID, empty = whole room
}

// Core is the broadcast gateway. A single run loop serializes all
// fanout so room members observe events in the causal order the
// server produced them.
type Core struct {
	roomMgr    *RoomManager
	register   chan *Client
	unregister chan *Client
	out        chan outbound
	handler    Handler
}

func NewCore(roomMgr *RoomManager) *Core {
	return &Core{
		roomMgr:    roomMgr,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		out:        make(chan outbound, 256),
	}
}

// SetHandler wires the game engine in. Must be called before Run.
func (c *Core) SetHandler(h Handler) {
	c.handler = h
}

func (c *Core) Run() {
	for {
		select {
		case cl := <-c.register:
			c.roomMgr.AddClient(cl)

		case cl := <-c.unregister:
			c.roomMgr.RemoveClient(cl)
			if c.handler != nil {
				c.handler.HandleDisconnect(cl)
			}

		case ob := <-c.out:
			c.dispatch(ob)
		}
	}
}

func (c *Core) dispatch(ob outbound) {
	if ob.to != "" {
		if cl := c.roomMgr.find(ob.msg.RoomID, ob.to); cl != nil {
			cl.Deliver(ob.msg)
		}
		return
	}

	for _, cl := range c.roomMgr.members(ob.msg.RoomID) {
		cl.Deliver(ob.msg)
	}
}

func (c *Core) Register() chan<- *Client {
	return c.register
}

func (c *Core) Unregister() chan<- *Client {
	return c.unregister
}

// Publish fans a message out to every connection in the room.
func (c *Core) Publish(roomID string, msg *Message) {
	c.out <- outbound{msg: msg}
}

// SendTo delivers a message to a single player's connection, if any.
func (c *Core) SendTo(roomID, playerID string, msg *Message) {
	c.out <- outbound{msg: msg, to: playerID}
}
