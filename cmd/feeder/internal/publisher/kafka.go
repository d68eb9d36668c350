package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/pkg/config"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

var _ Broker = (*KafkaBroker)(nil)

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaBroker publishes each update as a message keyed by ticker on the
// topic named after the channel.
type KafkaBroker struct {
	brokers []string
	topic   string
	writer  KafkaWriter
	topics  *TopicCreator
	logger  *zap.Logger
}

func NewKafkaBroker(cfg config.KafkaConfig, topic string, logger *zap.Logger) *KafkaBroker {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Balancer: &kafka.Hash{}, // same ticker, same partition
		// Batch to reduce network IO
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Kafka Write Error", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}

	dialer := &RealKafkaDialer{Dialer: &kafka.Dialer{Timeout: 5 * time.Second}}
	return NewKafkaBrokerWithWriter(cfg.Brokers, topic, writer, NewTopicCreator(logger, dialer, time.Sleep), logger)
}

func NewKafkaBrokerWithWriter(brokers []string, topic string, writer KafkaWriter, topics *TopicCreator, logger *zap.Logger) *KafkaBroker {
	return &KafkaBroker{
		brokers: brokers,
		topic:   topic,
		writer:  writer,
		topics:  topics,
		logger:  logger,
	}
}

// Connect dials the cluster and makes sure the feed topic exists.
func (b *KafkaBroker) Connect(ctx context.Context) error {
	return b.topics.Create(ctx, b.brokers, b.topic)
}

func (b *KafkaBroker) Publish(ctx context.Context, channel string, update models.PriceUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal update %s: %w", update.Ticker, err)
	}

	err = b.writer.WriteMessages(ctx, kafka.Message{
		Topic: channel,
		Key:   []byte(update.Ticker),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", update.Ticker, err)
	}
	return nil
}

// Close flushes buffered async writes.
func (b *KafkaBroker) Close() error {
	return b.writer.Close()
}
