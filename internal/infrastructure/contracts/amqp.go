package contracts

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	RoomCode string `json:"roomCode"`
	Data     []byte `json:"data"`
}

// Routing keys - using consistent event patterns
const (
	EventRoomCreated   = "room.created"
	EventPlayerJoined  = "player.joined"
	EventRoomClosed    = "room.closed"
	EventMatchFinished = "match.finished"
)
