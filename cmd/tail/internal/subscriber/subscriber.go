// Package subscriber reads price updates back off the feed channel.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/pkg/config"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

// Handler receives each decoded update. raw is the payload as received.
type Handler func(update models.PriceUpdate, raw []byte)

// Subscriber blocks in Run until ctx is cancelled or the source closes.
type Subscriber interface {
	Run(ctx context.Context, onUpdate Handler) error
	Close() error
}

// New builds the subscriber matching the broker the feeder publishes to.
func New(cfg *config.Config, channel string, logger *zap.Logger) (Subscriber, error) {
	switch cfg.Broker.Kind {
	case config.BrokerRedis:
		return NewRedisSubscriber(cfg.Redis, channel, logger), nil
	case config.BrokerKafka:
		return NewKafkaSubscriber(cfg.Kafka, channel, logger), nil
	default:
		return nil, fmt.Errorf("unknown broker kind %q", cfg.Broker.Kind)
	}
}

func decode(logger *zap.Logger, payload []byte, onUpdate Handler) {
	var update models.PriceUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		logger.Warn("Received raw message", zap.ByteString("payload", payload), zap.Error(err))
		return
	}
	onUpdate(update, payload)
}

func isDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
