package service

import (
	"context"

	"consentkit/internal/consent/models"
	"consentkit/internal/tracer"
)

const (
	opOptIn    = "opt_in"
	opOptOut   = "opt_out"
	opReset    = "reset"
	opResetAll = "reset_all"
)

// OptIn records allow for topic, then runs at_opt_in on its handlers.
func (s *Service) OptIn(ctx context.Context, topic models.Topic) error {
	return s.transition(ctx, opOptIn, tracer.SpanOptIn, topic, models.StatusAllow, models.SlotAtOptIn)
}

// OptOut records block for topic, then runs at_opt_out on its handlers.
func (s *Service) OptOut(ctx context.Context, topic models.Topic) error {
	return s.transition(ctx, opOptOut, tracer.SpanOptOut, topic, models.StatusBlock, models.SlotAtOptOut)
}

// Reset forgets the decision for topic, then runs at_reset on its handlers.
func (s *Service) Reset(ctx context.Context, topic models.Topic) error {
	return s.transition(ctx, opReset, tracer.SpanReset, topic, models.StatusUnknown, models.SlotAtReset)
}

// ResetAll resets every topic recorded when the call starts. Topics recorded
// by callbacks while it runs are left alone. The first error stops the loop;
// the topics reset so far are returned either way.
func (s *Service) ResetAll(ctx context.Context) (reset []models.Topic, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanResetAll)
	defer func() { span.End(err) }()

	record, err := s.store.Statuses(ctx)
	if err != nil {
		s.incrementTransitionError(opResetAll)
		return nil, err
	}
	topics := record.Topics()
	span.SetAttributes(tracer.Int(tracer.AttrTopics, len(topics)))

	reset = make([]models.Topic, 0, len(topics))
	for _, topic := range topics {
		if err := s.Reset(ctx, topic); err != nil {
			return reset, err
		}
		reset = append(reset, topic)
	}
	s.logger.InfoContext(ctx, "consent reset for all topics", "topics", len(reset))
	return reset, nil
}

func (s *Service) transition(ctx context.Context, op, spanName string, topic models.Topic, status models.Status, slot models.SlotName) (err error) {
	ctx, span := s.tracer.Start(ctx, spanName,
		tracer.String(tracer.AttrTopic, string(topic)),
		tracer.String(tracer.AttrStatus, string(status)),
	)
	defer func() { span.End(err) }()

	if err = s.store.SetStatus(ctx, topic, status); err != nil {
		s.incrementTransitionError(op)
		return err
	}
	span.AddEvent(tracer.EventStatusWritten)

	if err = s.registry.RunAll(ctx, topic, slot); err != nil {
		s.incrementTransitionError(op)
		return err
	}
	span.AddEvent(tracer.EventSlotBroadcast, tracer.String(tracer.AttrSlot, string(slot)))

	s.incrementTransition(op)
	s.logger.InfoContext(ctx, "consent transition",
		"operation", op,
		"topic", topic,
		"status", status,
	)
	return nil
}

func (s *Service) incrementTransition(op string) {
	if s.metrics != nil {
		s.metrics.IncrementTransition(op)
	}
}

func (s *Service) incrementTransitionError(op string) {
	if s.metrics != nil {
		s.metrics.IncrementTransitionError(op)
	}
}
