package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MatchRecord is an after-the-fact summary of a finished match, kept
// for reporting. Live game state is never persisted.
type MatchRecord struct {
	ID          string       `bson:"_id" json:"id"`
	RoomCode    string       `bson:"room_code" json:"roomCode"`
	WinnerID    string       `bson:"winner_id,omitempty" json:"winnerId,omitempty"`
	WinnerName  string       `bson:"winner_name,omitempty" json:"winnerName,omitempty"`
	RoundsCount int          `bson:"rounds_count" json:"roundsCount"`
	FinalScores []FinalScore `bson:"final_scores" json:"finalScores"`
	FinishedAt  time.Time    `bson:"finished_at" json:"finishedAt"`
}

type MatchHistoryRepository interface {
	Record(ctx context.Context, rec *MatchRecord) error
	GetByRoomCode(ctx context.Context, code string, limit int) ([]MatchRecord, error)
	DeleteOlderThan(ctx context.Context, before time.Time) error
	EnsureIndexes(ctx context.Context) error
}

func NewMatchRecord(room *Room, winner *Player, rounds int) *MatchRecord {
	rec := &MatchRecord{
		ID:          uuid.NewString(),
		RoomCode:    room.Code,
		RoundsCount: rounds,
		FinalScores: room.FinalScores(),
		FinishedAt:  time.Now(),
	}

	if winner != nil {
		rec.WinnerID = winner.ID
		rec.WinnerName = winner.Name
	}

	return rec
}
