package events

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"

	"github.com/lunahex/mimic/internal/domain"
	"github.com/lunahex/mimic/internal/infrastructure/contracts"
	"github.com/lunahex/mimic/internal/infrastructure/logging"
	"github.com/lunahex/mimic/internal/infrastructure/messaging"
)

type matchConsumer struct {
	rabbitmq *messaging.RabbitMQ
	history  domain.MatchHistoryRepository
	logger   logging.Logger
}

func NewMatchConsumer(rabbitmq *messaging.RabbitMQ, history domain.MatchHistoryRepository, logger logging.Logger) *matchConsumer {
	return &matchConsumer{
		rabbitmq: rabbitmq,
		history:  history,
		logger:   logger,
	}
}

// Listen drains the matches queue and persists finished-match records.
// Other lifecycle events on the queue are acknowledged without action.
func (c *matchConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.MatchesQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		if msg.RoutingKey != contracts.EventMatchFinished {
			return nil
		}

		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			c.logger.Error(logging.RabbitMQ, logging.ExternalService, "failed to unmarshal message: "+err.Error(), nil)
			return err
		}

		var payload messaging.MatchEventData
		if err := json.Unmarshal(message.Data, &payload); err != nil {
			c.logger.Error(logging.RabbitMQ, logging.ExternalService, "failed to unmarshal match event: "+err.Error(), nil)
			return err
		}

		if err := c.history.Record(ctx, &payload.Record); err != nil {
			c.logger.Error(logging.Mongo, logging.ExternalService, "failed to record match: "+err.Error(), map[logging.ExtraKey]any{
				logging.RoomCode: payload.Record.RoomCode,
			})
			return err
		}

		c.logger.Info(logging.RabbitMQ, logging.ExternalService, "match recorded", map[logging.ExtraKey]any{
			logging.RoomCode: payload.Record.RoomCode,
		})

		return nil
	})
}
