package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// RoomManager groups live clients by room so the hub can fan events
// out to everyone joined to a room's channel.
type RoomManager struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Client]struct{}
	upgrader websocket.Upgrader
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms: make(map[string]map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (m *RoomManager) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return m.upgrader.Upgrade(w, r, nil)
}

func (m *RoomManager) AddClient(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[c.RoomID]
	if !ok {
		room = make(map[*Client]struct{})
		m.rooms[c.RoomID] = room
	}
	room[c] = struct{}{}
}

func (m *RoomManager) RemoveClient(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[c.RoomID]
	if !ok {
		return
	}
	if _, member := room[c]; !member {
		return
	}

	delete(room, c)
	close(c.Message)
	if len(room) == 0 {
		delete(m.rooms, c.RoomID)
	}
}

// members snapshots the clients currently joined to a room.
func (m *RoomManager) members(roomID string) []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room := m.rooms[roomID]
	out := make([]*Client, 0, len(room))
	for c := range room {
		out = append(out, c)
	}
	return out
}

// find locates the live client bound to a (room, player) pair.
func (m *RoomManager) find(roomID, playerID string) *Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for c := range m.rooms[roomID] {
		if c.PlayerID == playerID {
			return c
		}
	}
	return nil
}
