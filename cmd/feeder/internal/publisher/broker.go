// Package publisher serializes price updates and emits them on a pub/sub broker.
package publisher

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/pkg/config"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

var ErrUnknownBroker = errors.New("unknown broker kind")

// Broker is the outbound pub/sub transport. Publish is fire-and-forget: a failed
// update is not queued or retried.
type Broker interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, channel string, update models.PriceUpdate) error
	Close() error
}

// New builds the broker selected by cfg.Broker.Kind.
func New(cfg *config.Config, logger *zap.Logger) (Broker, error) {
	switch cfg.Broker.Kind {
	case config.BrokerRedis:
		return NewRedisBroker(cfg.Redis, logger), nil
	case config.BrokerKafka:
		return NewKafkaBroker(cfg.Kafka, cfg.Feed.Channel, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBroker, cfg.Broker.Kind)
	}
}
