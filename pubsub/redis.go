package pubsub

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisBroker relays groups over Redis PUBLISH/SUBSCRIBE so that every API
// instance sharing the Redis server sees every event.
type RedisBroker struct {
	client *redis.Client
	prefix string
}

func NewRedisBroker(ctx context.Context, client *redis.Client) (*RedisBroker, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	return &RedisBroker{client: client, prefix: "marketplace:"}, nil
}

func (b *RedisBroker) channel(group string) string {
	return b.prefix + group
}

func (b *RedisBroker) Publish(ctx context.Context, group string, payload []byte) error {
	return errors.Wrapf(b.client.Publish(ctx, b.channel(group), payload).Err(), "redis publish %s", group)
}

func (b *RedisBroker) Subscribe(ctx context.Context, group string) (Subscription, error) {
	ps := b.client.Subscribe(ctx, b.channel(group))
	// Wait for the subscribe confirmation so nothing published after we
	// return is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Wrapf(err, "redis subscribe %s", group)
	}

	q := newQueue(group, DefaultBuffer)
	q.onStop = ps.Close
	ch := ps.Channel()
	go func() {
		for msg := range ch {
			q.deliver([]byte(msg.Payload))
		}
	}()
	return q, nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
