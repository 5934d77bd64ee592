package audit

import (
	"context"
	"fmt"

	"consentkit/internal/consent/events"
	"consentkit/internal/consent/models"
	"consentkit/internal/platform/middleware"
)

// StatusSubscriber turns set_status notifications into audit events.
// Subscribe it with bus.Subscribe(events.SetStatus, audit.StatusSubscriber(p)).
func StatusSubscriber(p *Publisher) events.Subscriber {
	return func(ctx context.Context, args ...any) error {
		if len(args) < 2 {
			return fmt.Errorf("set_status: expected (topic, status), got %d args", len(args))
		}
		topic, ok := args[0].(models.Topic)
		if !ok {
			return fmt.Errorf("set_status: topic has type %T", args[0])
		}
		status, ok := args[1].(models.Status)
		if !ok {
			return fmt.Errorf("set_status: status has type %T", args[1])
		}

		action := ActionStatusChanged
		if !status.IsStored() {
			action = ActionStatusCleared
		}
		return p.Emit(ctx, Event{
			Action:    action,
			Topic:     string(topic),
			Status:    string(status),
			RequestID: middleware.GetRequestID(ctx),
		})
	}
}
