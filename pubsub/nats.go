package pubsub

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/techagentng/marketplace/logging"
)

// NATSBroker relays groups over core NATS subjects.
type NATSBroker struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSBroker(url string) (*NATSBroker, error) {
	nc, err := nats.Connect(url,
		nats.Name("marketplace-api"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect nats")
	}
	return &NATSBroker{conn: nc, prefix: "marketplace."}, nil
}

func (b *NATSBroker) subject(group string) string {
	return b.prefix + group
}

func (b *NATSBroker) Publish(_ context.Context, group string, payload []byte) error {
	return errors.Wrapf(b.conn.Publish(b.subject(group), payload), "nats publish %s", group)
}

func (b *NATSBroker) Subscribe(_ context.Context, group string) (Subscription, error) {
	q := newQueue(group, DefaultBuffer)
	sub, err := b.conn.Subscribe(b.subject(group), func(msg *nats.Msg) {
		q.deliver(msg.Data)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "nats subscribe %s", group)
	}
	// Flush round-trips to the server so the interest is registered before
	// the caller relies on it.
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, errors.Wrap(err, "nats flush")
	}
	q.onStop = sub.Unsubscribe
	return q, nil
}

func (b *NATSBroker) Close() error {
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return errors.Wrap(err, "drain nats")
	}
	return nil
}
