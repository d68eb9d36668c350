package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/pkg/config"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

const snapshotKeyPrefix = "stock:"

var _ Broker = (*RedisBroker)(nil)

// RedisClient abstracts the go-redis connection
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Pipeline() redis.Pipeliner
	Close() error
}

type RedisBroker struct {
	client      RedisClient
	addr        string
	snapshotTTL time.Duration
	logger      *zap.Logger
}

func NewRedisBroker(cfg config.RedisConfig, logger *zap.Logger) *RedisBroker {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisBrokerWithClient(rdb, cfg.Addr, cfg.SnapshotTTL, logger)
}

func NewRedisBrokerWithClient(client RedisClient, addr string, snapshotTTL time.Duration, logger *zap.Logger) *RedisBroker {
	return &RedisBroker{
		client:      client,
		addr:        addr,
		snapshotTTL: snapshotTTL,
		logger:      logger,
	}
}

// Connect pings the server; go-redis redials lazily, so a successful ping is
// what marks the broker usable.
func (b *RedisBroker) Connect(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", b.addr, err)
	}
	b.logger.Info("Connected to Redis", zap.String("addr", b.addr))
	return nil
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, update models.PriceUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal update %s: %w", update.Ticker, err)
	}

	// PUBLISH (+ latest snapshot) in one round trip
	pipe := b.client.Pipeline()
	pipe.Publish(ctx, channel, payload)
	if b.snapshotTTL > 0 {
		pipe.Set(ctx, snapshotKeyPrefix+update.Ticker, payload, b.snapshotTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish %s: %w", update.Ticker, err)
	}
	return nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
