package pubsub

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only when MARKETPLACE_TEST_REDIS_ADDR points at a live server.
func TestRedisBroker(t *testing.T) {
	addr := os.Getenv("MARKETPLACE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MARKETPLACE_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	b, err := NewRedisBroker(ctx, redis.NewClient(&redis.Options{Addr: addr}))
	require.NoError(t, err)
	defer b.Close()

	sub, err := b.Subscribe(ctx, "chat_3")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, "chat_3", []byte("ping")))
	assert.Equal(t, "ping", string(receive(t, sub)))
}
