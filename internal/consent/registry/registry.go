// Package registry keeps the ordered list of consent handlers and dispatches
// lifecycle slots to them.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"consentkit/internal/consent/metrics"
	"consentkit/internal/consent/models"
	"consentkit/internal/consent/ready"
	dErrors "consentkit/pkg/domain-errors"
)

// StatusReader reads the current decision for a topic.
type StatusReader interface {
	GetStatus(ctx context.Context, topic models.Topic) (models.Status, error)
}

// SlotResolver runs a named slot on a handler.
type SlotResolver interface {
	Resolve(ctx context.Context, h *models.Handler, name models.SlotName) error
}

// ReadySignal queues continuations until the host is ready.
type ReadySignal interface {
	Register(fn ready.Continuation) error
}

type Option func(*Registry)

// WithReadySignal wires at_ready dispatch. Without one, at_ready slots never run.
func WithReadySignal(sig ReadySignal) Option {
	return func(r *Registry) {
		r.ready = sig
	}
}

// WithLogger sets the logger instance for the registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics instance for the registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// Registry is an append-only, ordered list of handlers.
//
// The lock only guards the slice. Callbacks always run without it held, so a
// callback may add handlers or trigger RunAll itself.
type Registry struct {
	mu       sync.RWMutex
	handlers []*models.Handler

	statuses StatusReader
	resolver SlotResolver
	ready    ReadySignal
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New creates an empty Registry.
func New(statuses StatusReader, resolver SlotResolver, opts ...Option) *Registry {
	r := &Registry{
		statuses: statuses,
		resolver: resolver,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Add normalizes spec into a handler, appends it, and runs the slot matching
// the topic's current status (if_opted_in, if_opted_out or if_unknown). When a
// ready signal is configured it also queues at_ready followed by the
// at_ready_if_* slot for the status read here, not the status at fire time.
//
// The handler is appended before any callback runs and stays registered even
// when a callback fails.
func (r *Registry) Add(ctx context.Context, spec models.Spec) (*models.Handler, error) {
	if spec == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "handler is required")
	}
	h := spec.ToHandler()
	if h == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "handler is required")
	}

	r.mu.Lock()
	r.handlers = append(r.handlers, h)
	r.mu.Unlock()
	if r.metrics != nil {
		r.metrics.IncrementHandlers()
	}

	status, err := r.statuses.GetStatus(ctx, h.Name)
	if err != nil {
		return h, err
	}

	r.logger.DebugContext(ctx, "consent handler registered",
		"handler_id", h.ID,
		"topic", h.Name,
		"status", status,
	)

	if err := r.resolver.Resolve(ctx, h, models.ImmediateSlot(status)); err != nil {
		return h, err
	}

	if r.ready == nil {
		return h, nil
	}
	err = r.ready.Register(func(ctx context.Context) error {
		if err := r.resolver.Resolve(ctx, h, models.SlotAtReady); err != nil {
			return err
		}
		return r.resolver.Resolve(ctx, h, models.ReadySlot(status))
	})
	return h, err
}

// RunAll resolves slot on every handler registered for topic, in registration
// order. Handlers added while RunAll is running are not visited. The first
// callback error stops the broadcast.
func (r *Registry) RunAll(ctx context.Context, topic models.Topic, slot models.SlotName) error {
	for _, h := range r.Handlers() {
		if h.Name != topic {
			continue
		}
		if err := r.resolver.Resolve(ctx, h, slot); err != nil {
			r.logger.WarnContext(ctx, "consent handler callback failed",
				"handler_id", h.ID,
				"topic", topic,
				"slot", slot,
				"error", err,
			)
			return err
		}
	}
	return nil
}

// Handlers returns a snapshot of the registered handlers in order.
func (r *Registry) Handlers() []*models.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*models.Handler(nil), r.handlers...)
}

// Len is the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
