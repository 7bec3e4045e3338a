package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/devbrain-cz/finance-keeper/internal/entity/alert"
	"github.com/devbrain-cz/finance-keeper/internal/logger"
)

type consumerConfig interface {
	producerConfig
	ConsumerGroup() string
}

type alertHandler interface {
	HandleAlert(ctx context.Context, a alert.Alert) error
}

type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	topic         string
	handler       alertHandler
}

func NewConsumer(cfg consumerConfig, handler alertHandler) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_5_0_0
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers(), cfg.ConsumerGroup(), config)
	return &Consumer{
		consumerGroup: consumerGroup,
		topic:         cfg.AlertsTopic(),
		handler:       handler,
	}, err
}

func (c *Consumer) StartConsuming(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			err := c.consumerGroup.Consume(ctx, []string{c.topic}, c)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("consume from %s", c.topic))
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.consumerGroup.Close()
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	logger.Info("consumer - setup")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	logger.Info("consumer - cleanup")
	return nil
}

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var a alert.Alert
		err := json.Unmarshal(message.Value, &a)
		if err != nil {
			logger.Error("cannot unmarshal kafka message", zap.Error(err))
		} else {
			logger.Info(
				"received alert event",
				zap.ByteString("key", message.Key),
				zap.String("kind", string(a.Kind)),
			)
			c.processAlert(session.Context(), a)
		}
		session.MarkMessage(message, "")
	}

	return nil
}

func (c *Consumer) processAlert(ctx context.Context, a alert.Alert) {
	err := c.handler.HandleAlert(ctx, a)
	if err != nil {
		logger.Error("failed to handle alert", zap.Error(err))
	}
}
