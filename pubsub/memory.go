package pubsub

import (
	"context"
	"sync"
)

// MemoryBroker fans out within the current process.
type MemoryBroker struct {
	mu     sync.RWMutex
	groups map[string]map[*queue]struct{}
	buffer int
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{groups: make(map[string]map[*queue]struct{}), buffer: DefaultBuffer}
}

func (b *MemoryBroker) Publish(_ context.Context, group string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for q := range b.groups[group] {
		q.deliver(payload)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, group string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	q := newQueue(group, b.buffer)
	q.onStop = func() error {
		b.remove(q)
		return nil
	}
	members, ok := b.groups[group]
	if !ok {
		members = make(map[*queue]struct{})
		b.groups[group] = members
	}
	members[q] = struct{}{}
	return q, nil
}

func (b *MemoryBroker) remove(q *queue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members := b.groups[q.group]
	delete(members, q)
	if len(members) == 0 {
		delete(b.groups, q.group)
	}
}

// Subscribers reports how many subscriptions group currently has.
func (b *MemoryBroker) Subscribers(group string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.groups[group])
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var all []*queue
	for _, members := range b.groups {
		for q := range members {
			all = append(all, q)
		}
	}
	b.groups = make(map[string]map[*queue]struct{})
	b.mu.Unlock()

	for _, q := range all {
		q.mu.Lock()
		q.onStop = nil
		q.mu.Unlock()
		_ = q.Close()
	}
	return nil
}
