package ws

// Message is the wire envelope for every room-scoped event.
type Message struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Data   any    `json:"data,omitempty"`
}

// SubmitPayload is the body of an inbound submit-sequence event.
type SubmitPayload struct {
	Sequence []string `json:"sequence"`
}

// Payload structs
type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarID  int    `json:"avatarId"`
	IsHost    bool   `json:"isHost"`
	Score     int    `json:"score"`
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
}

type SnapshotPayload struct {
	Code        string       `json:"code"`
	Status      string       `json:"status"`
	Players     []PlayerView `json:"players"`
	Round       int          `json:"round,omitempty"`
	Sequence    []string     `json:"sequence,omitempty"`
	RemainingMs int64        `json:"remainingMs,omitempty"`
	DurationMs  int64        `json:"durationMs,omitempty"`
}

type PlayerRefPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type CountdownPayload struct {
	Count int `json:"count"`
}

type RoundPayload struct {
	Round int `json:"round"`
}

type SequencePayload struct {
	Round    int      `json:"round"`
	Sequence []string `json:"sequence"`
}

type InputPhasePayload struct {
	Round      int    `json:"round"`
	Deadline   string `json:"deadline"` // RFC3339
	DurationMs int64  `json:"durationMs"`
}

type SubmissionJudgedPayload struct {
	PlayerID string `json:"playerId"`
	Correct  bool   `json:"correct"`
}

type TimeoutPayload struct {
	Round   int                `json:"round"`
	Players []PlayerRefPayload `json:"players"`
}

type EliminationPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Reason   string `json:"reason"`
}

type RoundResultPayload struct {
	Round      int                  `json:"round"`
	Winner     *PlayerRefPayload    `json:"winner"` // null when nobody was correct
	Eliminated []EliminationPayload `json:"eliminations"`
	Scores     map[string]int       `json:"scores"`
	Statuses   map[string]string    `json:"statuses"`
}

type FinalScorePayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

type MatchFinishedPayload struct {
	Winner      *PlayerRefPayload   `json:"winner"`
	FinalScores []FinalScorePayload `json:"finalScores"`
}

type GameRestartedPayload struct {
	GameCode string `json:"gameCode"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func NewCountdownTick(roomID string, count int) *Message {
	return &Message{Type: CountdownTick, RoomID: roomID, Data: CountdownPayload{Count: count}}
}

func NewShowSequence(roomID string, round int, sequence []string) *Message {
	return &Message{Type: ShowSequence, RoomID: roomID, Data: SequencePayload{Round: round, Sequence: sequence}}
}

func NewSequenceComplete(roomID string, round int) *Message {
	return &Message{Type: SequenceComplete, RoomID: roomID, Data: RoundPayload{Round: round}}
}

func NewPlayerJoined(roomID string, view PlayerView) *Message {
	return &Message{Type: PlayerJoined, RoomID: roomID, Data: view}
}

func NewPlayerLeft(roomID, playerID, name string) *Message {
	return &Message{Type: PlayerLeft, RoomID: roomID, Data: PlayerRefPayload{PlayerID: playerID, Name: name}}
}

func NewPlayerDisconnected(roomID, playerID, name string) *Message {
	return &Message{Type: PlayerDisconnected, RoomID: roomID, Data: PlayerRefPayload{PlayerID: playerID, Name: name}}
}

func NewPlayerReconnected(roomID, playerID, name string) *Message {
	return &Message{Type: PlayerReconnected, RoomID: roomID, Data: PlayerRefPayload{PlayerID: playerID, Name: name}}
}

func NewPlayerSubmitted(roomID, playerID string) *Message {
	return &Message{Type: PlayerSubmitted, RoomID: roomID, Data: PlayerRefPayload{PlayerID: playerID}}
}

func NewSubmissionJudged(roomID, playerID string, correct bool) *Message {
	return &Message{Type: SubmissionJudged, RoomID: roomID, Data: SubmissionJudgedPayload{PlayerID: playerID, Correct: correct}}
}

func NewPlayerEliminated(roomID, playerID, name, reason string) *Message {
	return &Message{Type: PlayerEliminated, RoomID: roomID, Data: EliminationPayload{PlayerID: playerID, Name: name, Reason: reason}}
}

func NewRoomClosed(roomID string) *Message {
	return &Message{Type: RoomClosed, RoomID: roomID}
}

func NewGameRestarted(roomID string) *Message {
	return &Message{Type: GameRestarted, RoomID: roomID, Data: GameRestartedPayload{GameCode: roomID}}
}

func NewError(roomID, code, message string) *Message {
	return &Message{Type: ErrorEvent, RoomID: roomID, Data: ErrorPayload{Code: code, Message: message}}
}
