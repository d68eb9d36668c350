package subscriber

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/pkg/config"
)

var _ Subscriber = (*RedisSubscriber)(nil)

type RedisSubscriber struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisSubscriber(cfg config.RedisConfig, channel string, logger *zap.Logger) *RedisSubscriber {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisSubscriber{client: client, channel: channel, logger: logger}
}

// Run subscribes and dispatches messages until ctx ends.
func (r *RedisSubscriber) Run(ctx context.Context, onUpdate Handler) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// wait for the subscription confirmation so no early message is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		if isDone(err) {
			return nil
		}
		return err
	}
	r.logger.Info("Listening", zap.String("channel", r.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			decode(r.logger, []byte(msg.Payload), onUpdate)
		}
	}
}

func (r *RedisSubscriber) Close() error {
	return r.client.Close()
}
