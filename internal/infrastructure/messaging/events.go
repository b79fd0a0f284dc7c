package messaging

import "github.com/lunahex/mimic/internal/domain"

const (
	MatchesQueue    = "matches"
	DeadLetterQueue = "dead_letter_queue"
)

type RoomEventData struct {
	Code   string `json:"code"`
	HostID string `json:"hostId,omitempty"`
}

type PlayerEventData struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
}

type MatchEventData struct {
	Record domain.MatchRecord `json:"record"`
}
