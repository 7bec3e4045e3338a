package kafka

import (
	"context"
	"encoding/json"

	"github.com/Shopify/sarama"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/devbrain-cz/finance-keeper/internal/entity/alert"
	"github.com/devbrain-cz/finance-keeper/internal/logger"
)

type producerConfig interface {
	Brokers() []string
	AlertsTopic() string
}

type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(cfg producerConfig) (*Producer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_5_0_0
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers(), config)
	return &Producer{
		producer: producer,
		topic:    cfg.AlertsTopic(),
	}, err
}

// PublishAlert sends one alert event to the alerts topic, keyed by its kind
// so alerts of a kind stay ordered within a partition.
func (p *Producer) PublishAlert(ctx context.Context, a alert.Alert) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "publishAlert")
	defer span.Finish()
	span.SetTag("kind", string(a.Kind))

	value, err := json.Marshal(a)
	if err != nil {
		return errors.Wrap(err, "publish alert")
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(a.Kind),
		Value: sarama.ByteEncoder(value),
	})
	return errors.Wrap(err, "publish alert")
}

func (p *Producer) Close() {
	err := p.producer.Close()
	if err != nil {
		logger.Error("failed to close producer", zap.Error(err))
	}
}
