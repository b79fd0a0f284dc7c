package events

import (
	"context"
	"encoding/json"

	"github.com/lunahex/mimic/internal/domain"
	"github.com/lunahex/mimic/internal/infrastructure/contracts"
	"github.com/lunahex/mimic/internal/infrastructure/logging"
	"github.com/lunahex/mimic/internal/infrastructure/messaging"
)

// MatchPublisher pushes room and match lifecycle events onto the
// broker. Publish failures are logged and swallowed: the game loop
// must never stall because the broker is down.
type MatchPublisher struct {
	rabbitmq *messaging.RabbitMQ
	logger   logging.Logger
}

func NewMatchPublisher(rabbitmq *messaging.RabbitMQ, logger logging.Logger) *MatchPublisher {
	return &MatchPublisher{
		rabbitmq: rabbitmq,
		logger:   logger,
	}
}

func (p *MatchPublisher) RoomCreated(code, hostID string) {
	p.publish(code, contracts.EventRoomCreated, messaging.RoomEventData{Code: code, HostID: hostID})
}

func (p *MatchPublisher) PlayerJoined(code, playerID string) {
	p.publish(code, contracts.EventPlayerJoined, messaging.PlayerEventData{Code: code, PlayerID: playerID})
}

func (p *MatchPublisher) RoomClosed(code string) {
	p.publish(code, contracts.EventRoomClosed, messaging.RoomEventData{Code: code})
}

func (p *MatchPublisher) MatchFinished(rec *domain.MatchRecord) {
	p.publish(rec.RoomCode, contracts.EventMatchFinished, messaging.MatchEventData{Record: *rec})
}

func (p *MatchPublisher) publish(code, routingKey string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error(logging.RabbitMQ, logging.ExternalService, "failed to marshal event payload", map[logging.ExtraKey]any{
			logging.RoomCode: code,
		})
		return
	}

	msg := contracts.AmqpMessage{
		RoomCode: code,
		Data:     data,
	}

	if err := p.rabbitmq.PublishMessage(context.Background(), routingKey, msg); err != nil {
		p.logger.Error(logging.RabbitMQ, logging.ExternalService, "failed to publish event: "+err.Error(), map[logging.ExtraKey]any{
			logging.RoomCode: code,
		})
	}
}
