package audit

import "context"

// Store persists audit events in append order.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
	ListByTopic(ctx context.Context, topic string) ([]Event, error)
}
