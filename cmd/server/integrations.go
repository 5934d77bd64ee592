package main

import (
	"context"
	"log/slog"

	"consentkit/internal/consent/models"
)

// integration is a host-side feature gated on one consent topic. The server
// registers a logging stand-in for each so the lifecycle is observable.
type integration struct {
	topic       models.Topic
	description string
}

var integrations = []integration{
	{topic: "analytics", description: "page view analytics"},
	{topic: "marketing", description: "marketing pixels"},
	{topic: "video", description: "embedded video players"},
}

const (
	slotEnable  models.SlotName = "enable"
	slotDisable models.SlotName = "disable"
)

// handlerFor wires enable/disable callbacks through aliases so the immediate,
// ready and transition slots share one implementation.
func handlerFor(log *slog.Logger, in integration) models.HandlerConfig {
	enable := func(ctx context.Context) error {
		log.InfoContext(ctx, "integration enabled", "topic", in.topic, "integration", in.description)
		return nil
	}
	disable := func(ctx context.Context) error {
		log.InfoContext(ctx, "integration disabled", "topic", in.topic, "integration", in.description)
		return nil
	}
	pending := func(ctx context.Context) error {
		log.DebugContext(ctx, "integration awaiting decision", "topic", in.topic)
		return nil
	}

	return models.HandlerConfig{
		Name: in.topic,
		Slots: map[models.SlotName]models.Slot{
			slotEnable:                   models.Func(enable),
			slotDisable:                  models.Func(disable),
			models.SlotIfUnknown:         models.Func(pending),
			models.SlotAtReadyIfOptedIn:  models.Alias(slotEnable),
			models.SlotAtReadyIfOptedOut: models.Alias(slotDisable),
			models.SlotAtOptIn:           models.Alias(slotEnable),
			models.SlotAtOptOut:          models.Alias(slotDisable),
			models.SlotAtReset:           models.Sequence(models.To(slotDisable), models.Call(pending)),
		},
	}
}

type registrar interface {
	Add(ctx context.Context, spec models.Spec) (*models.Handler, error)
}

func registerIntegrations(ctx context.Context, log *slog.Logger, reg registrar) error {
	for _, in := range integrations {
		h, err := reg.Add(ctx, handlerFor(log, in))
		if err != nil {
			return err
		}
		log.DebugContext(ctx, "registered consent handler", "topic", h.Name, "handler_id", h.ID)
	}
	return nil
}
