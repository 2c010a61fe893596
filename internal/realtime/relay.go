package realtime

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/it-helpdesk/internal"
)

// NewRedisClient connects to the relay's Redis server. A failed ping is logged, not fatal.
func NewRedisClient(cfg internal.RealtimeConfig, logger *slog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", "addr", cfg.RedisAddr, "error", err)
	} else {
		logger.Info("connected to redis", "addr", cfg.RedisAddr)
	}

	return client
}

// RedisRelay shares refresh signals between instances over a Redis pub/sub channel.
type RedisRelay struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisRelay(client *redis.Client, channel string, logger *slog.Logger) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (r *RedisRelay) Publish(ctx context.Context, topic Topic) error {
	return r.client.Publish(ctx, r.channel, string(topic)).Err()
}

func (r *RedisRelay) Subscribe(ctx context.Context) (<-chan Topic, error) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan Topic, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				topic, ok := ParseTopic(msg.Payload)
				if !ok {
					r.logger.Warn("ignoring unknown relay topic", "payload", msg.Payload)
					continue
				}
				select {
				case out <- topic:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	r.logger.Debug("subscribed to relay channel", "channel", r.channel)
	return out, nil
}
