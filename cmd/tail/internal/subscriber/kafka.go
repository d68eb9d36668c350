package subscriber

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/pkg/config"
)

var _ Subscriber = (*KafkaSubscriber)(nil)

// KafkaReader abstracts the input stream
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type KafkaSubscriber struct {
	reader KafkaReader
	logger *zap.Logger
}

func NewKafkaSubscriber(cfg config.KafkaConfig, topic string, logger *zap.Logger) *KafkaSubscriber {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  200 * time.Millisecond,
	})
	return NewKafkaSubscriberWithReader(reader, logger)
}

func NewKafkaSubscriberWithReader(reader KafkaReader, logger *zap.Logger) *KafkaSubscriber {
	return &KafkaSubscriber{reader: reader, logger: logger}
}

func (k *KafkaSubscriber) Run(ctx context.Context, onUpdate Handler) error {
	for {
		m, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if isDone(err) || errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		decode(k.logger, m.Value, onUpdate)
	}
}

func (k *KafkaSubscriber) Close() error {
	return k.reader.Close()
}
