// Package pubsub fans chat events out to every connection subscribed to a
// group. Brokers are interchangeable: an in-process one for a single
// instance, Redis or NATS when several API instances share rooms.
package pubsub

import (
	"context"
	"errors"
	"sync"

	"github.com/techagentng/marketplace/logging"
)

// DefaultBuffer is the per-subscription queue length. A subscriber that falls
// this far behind starts losing events instead of stalling the publisher.
const DefaultBuffer = 256

var ErrClosed = errors.New("pubsub: broker closed")

type Broker interface {
	// Publish delivers payload to every current subscriber of group,
	// the publishing connection included.
	Publish(ctx context.Context, group string, payload []byte) error
	// Subscribe registers interest in group. Events published after
	// Subscribe returns are delivered on the subscription's channel.
	Subscribe(ctx context.Context, group string) (Subscription, error)
	Close() error
}

type Subscription interface {
	Group() string
	Messages() <-chan []byte
	// Close stops delivery and closes the Messages channel. It is safe to
	// call more than once.
	Close() error
}

// queue is the channel-backed half shared by every Subscription.
type queue struct {
	group  string
	mu     sync.Mutex
	ch     chan []byte
	closed bool
	onStop func() error
}

func newQueue(group string, size int) *queue {
	if size <= 0 {
		size = DefaultBuffer
	}
	return &queue{group: group, ch: make(chan []byte, size)}
}

func (q *queue) Group() string { return q.group }

func (q *queue) Messages() <-chan []byte { return q.ch }

// deliver never blocks; a full queue drops the event.
func (q *queue) deliver(payload []byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- payload:
		return true
	default:
		logging.Warn().Str("group", q.group).Msg("subscriber queue full, dropping event")
		return false
	}
}

func (q *queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	stop := q.onStop
	q.mu.Unlock()

	if stop != nil {
		return stop()
	}
	return nil
}
