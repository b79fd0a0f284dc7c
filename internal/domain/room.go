package domain

import (
	"crypto/rand"
	"math/big"
	"sort"
	"strings"
	"time"
)

const (
	// MaxPlayers is the hard seat limit per room.
	MaxPlayers = 4

	codeLength = 6

	// codeChars avoids ambiguous glyphs (0/O, 1/I) so codes survive
	// being read out loud.
	codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var charsetLen = big.NewInt(int64(len(codeChars)))

type RoomStatus string

const (
	RoomWaiting   RoomStatus = "waiting"
	RoomCountdown RoomStatus = "countdown"
	RoomActive    RoomStatus = "active"
	RoomFinished  RoomStatus = "finished"
)

// Room is one match's state. Players are kept in join order; the
// first entry is always the host.
type Room struct {
	Code      string
	Status    RoomStatus
	Players   []*Player
	Round     *Round
	CreatedAt time.Time
}

func NewRoom(host *Player) (*Room, error) {
	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}

	host.IsHost = true

	return &Room{
		Code:      code,
		Status:    RoomWaiting,
		Players:   []*Player{host},
		CreatedAt: time.Now(),
	}, nil
}

// GenerateCode draws a 6-character room code from the unambiguous
// alphabet using crypto/rand.
func GenerateCode() (string, error) {
	var sb strings.Builder
	sb.Grow(codeLength)

	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(codeChars[n.Int64()])
	}

	return sb.String(), nil
}

// AddPlayer seats a non-host player. Joining is only possible while
// the room is waiting and below the seat limit.
func (r *Room) AddPlayer(p *Player) error {
	if r.Status != RoomWaiting {
		return ErrGameInProgress
	}
	if len(r.Players) >= MaxPlayers {
		return ErrRoomFull
	}

	p.IsHost = false
	r.Players = append(r.Players, p)

	return nil
}

// Player finds a member by id, or nil.
func (r *Room) Player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Host returns the current host, or nil for an empty room.
func (r *Room) Host() *Player {
	for _, p := range r.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// RemovePlayer drops a member, keeping join order intact. When the
// host leaves, the next player in join order inherits the flag. The
// first return is the removed player (nil if unknown); the second
// reports whether the room is now empty.
func (r *Room) RemovePlayer(id string) (*Player, bool) {
	idx := -1
	for i, p := range r.Players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, len(r.Players) == 0
	}

	removed := r.Players[idx]
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if removed.IsHost && len(r.Players) > 0 {
		r.Players[0].IsHost = true
	}

	return removed, len(r.Players) == 0
}

// ActivePlayers returns the players still competing, in join order.
func (r *Room) ActivePlayers() []*Player {
	active := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.Active() {
			active = append(active, p)
		}
	}
	return active
}

// Scores snapshots every member's score keyed by player id.
func (r *Room) Scores() map[string]int {
	scores := make(map[string]int, len(r.Players))
	for _, p := range r.Players {
		scores[p.ID] = p.Score
	}
	return scores
}

// Statuses snapshots every member's play status keyed by player id.
func (r *Room) Statuses() map[string]PlayerStatus {
	statuses := make(map[string]PlayerStatus, len(r.Players))
	for _, p := range r.Players {
		statuses[p.ID] = p.Status
	}
	return statuses
}

// FinalScore is one row of the end-of-match scoreboard.
type FinalScore struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// FinalScores returns the scoreboard sorted by score descending, ties
// broken by join order.
func (r *Room) FinalScores() []FinalScore {
	scores := make([]FinalScore, 0, len(r.Players))
	for _, p := range r.Players {
		scores = append(scores, FinalScore{PlayerID: p.ID, Name: p.Name, Score: p.Score})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	return scores
}

// Restart rewinds a finished match to the lobby: scores zeroed,
// everyone playing again, round state gone. Membership and the room
// code survive.
func (r *Room) Restart() error {
	if r.Status != RoomFinished {
		return ErrMatchNotOver
	}

	for _, p := range r.Players {
		p.Score = 0
		p.Status = StatusPlaying
	}

	r.Round = nil
	r.Status = RoomWaiting

	return nil
}
