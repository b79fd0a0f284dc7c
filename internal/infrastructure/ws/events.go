package ws

// Inbound event names (client -> server).
const (
	LeaveRoom      = "leave-room"
	StartGame      = "start-game"
	SubmitSequence = "submit-sequence"
	RestartGame    = "restart-game"
)

// Outbound event names (server -> room members).
const (
	RoomSnapshot       = "room-state-snapshot"
	PlayerJoined       = "player-joined"
	PlayerLeft         = "player-left"
	PlayerDisconnected = "player-disconnected"
	PlayerReconnected  = "player-reconnected"
	RoomClosed         = "room-closed"

	CountdownTick    = "countdown-tick"
	ShowSequence     = "show-sequence"
	SequenceComplete = "sequence-complete"
	InputPhaseOpened = "input-phase-opened"
	PlayerSubmitted  = "player-submitted"
	SubmissionJudged = "submission-judged"
	InputTimeout     = "input-timeout"
	RoundResult      = "round-result"
	PlayerEliminated = "player-eliminated"
	MatchFinished    = "match-finished"
	GameRestarted    = "game-restarted"

	ErrorEvent = "error"
)
