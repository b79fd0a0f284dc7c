package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lunahex/mimic/internal/infrastructure/validate"
)

// MaxAvatar is the highest avatar identifier clients may pick.
const MaxAvatar = 11

type PlayerStatus string

const (
	StatusPlaying    PlayerStatus = "playing"
	StatusEliminated PlayerStatus = "eliminated"
	StatusSpectating PlayerStatus = "spectating"
)

// Connectivity tracks whether a player's seat currently has a live
// connection behind it. Removal is not a state: a removed player
// leaves the room entirely.
type Connectivity string

const (
	// ConnOnline: a live connection is bound to the seat.
	ConnOnline Connectivity = "connected"
	// ConnDropped: connection lost, still inside the silent buffer
	// window; nothing has been announced to the room yet.
	ConnDropped Connectivity = "dropped"
	// ConnGrace: the drop has been announced; the seat is held until
	// the grace window runs out.
	ConnGrace Connectivity = "disconnected-grace"
)

type Player struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Avatar   int          `json:"avatarId"`
	IsHost   bool         `json:"isHost"`
	Score    int          `json:"score"`
	Status   PlayerStatus `json:"status"`
	Conn     Connectivity `json:"connectivity"`
	JoinedAt time.Time    `json:"joinedAt"`
}

func NewPlayer(rawName string, avatar int) (*Player, error) {
	validateName := validate.Field("displayName",
		validate.Required(),
		validate.MinLength(2),
		validate.MaxLength(24),
		validate.NoSpaces(),
		validate.Matches(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`,
			"display name can only contain letters, numbers, underscores, and hyphens"),
	)

	if err := validateName(rawName); err != nil {
		return nil, err
	}

	if avatar < 0 || avatar > MaxAvatar {
		return nil, fmt.Errorf("avatarId: must be between 0 and %d", MaxAvatar)
	}

	return &Player{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(rawName),
		Avatar:   avatar,
		Status:   StatusPlaying,
		Conn:     ConnOnline,
		JoinedAt: time.Now(),
	}, nil
}

// Active reports whether the player still takes part in rounds.
func (p *Player) Active() bool {
	return p.Status == StatusPlaying
}
