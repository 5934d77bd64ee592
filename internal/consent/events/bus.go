// Package events is a small synchronous publish/subscribe bus keyed by event name.
package events

import (
	"context"
	"sync"
)

// SetStatus is published after every consent write with (models.Topic, models.Status).
const SetStatus = "set_status"

// Subscriber receives the positional arguments passed to Notify.
type Subscriber func(ctx context.Context, args ...any) error

// Bus maps event names to subscribers in subscription order.
// Subscriptions are append-only for the lifetime of the bus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Subscriber
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{subscribers: make(map[string][]Subscriber)}
}

// Subscribe appends fn to the subscribers of event. Nil subscribers are ignored.
func (b *Bus) Subscribe(event string, fn Subscriber) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribers == nil {
		b.subscribers = make(map[string][]Subscriber)
	}
	b.subscribers[event] = append(b.subscribers[event], fn)
}

// Notify invokes every subscriber of event synchronously, in subscription order.
// The first subscriber error stops delivery and is returned. An event without
// subscribers is a no-op.
func (b *Bus) Notify(ctx context.Context, event string, args ...any) error {
	for _, fn := range b.snapshot(event) {
		if err := fn(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// Subscribers reports how many subscribers event has.
func (b *Bus) Subscribers(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[event])
}

// snapshot copies the subscriber list so callbacks may subscribe re-entrantly.
func (b *Bus) snapshot(event string) []Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.subscribers[event]
	if len(subs) == 0 {
		return nil
	}
	return append([]Subscriber(nil), subs...)
}
