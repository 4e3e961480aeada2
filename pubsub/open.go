package pubsub

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/techagentng/marketplace/config"
)

func NewRedisClient(c *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
}

// Open returns the broker selected by c.Broker. client is only used for the
// redis broker and may be nil otherwise.
func Open(ctx context.Context, c *config.Config, client *redis.Client) (Broker, error) {
	switch c.Broker {
	case "memory", "":
		return NewMemoryBroker(), nil
	case "redis":
		if client == nil {
			client = NewRedisClient(c)
		}
		return NewRedisBroker(ctx, client)
	case "nats":
		return NewNATSBroker(c.NatsURL)
	default:
		return nil, fmt.Errorf("unknown broker %q", c.Broker)
	}
}
