// Package resolver turns a named slot on a handler into callback invocations.
package resolver

import (
	"context"
	"log/slog"

	"consentkit/internal/consent/metrics"
	"consentkit/internal/consent/models"
	dErrors "consentkit/pkg/domain-errors"
)

// DefaultMaxDepth bounds alias chains and nested sequences.
const DefaultMaxDepth = 64

type Option func(*Resolver)

// WithMaxDepth sets the alias depth bound. Non-positive values keep the default.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithLogger sets the logger instance for the resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics instance for the resolver.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// Resolver resolves slots. It holds no per-call state and is safe for
// concurrent use.
type Resolver struct {
	maxDepth int
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		maxDepth: DefaultMaxDepth,
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

// MaxDepth returns the configured alias depth bound.
func (r *Resolver) MaxDepth() int {
	return r.maxDepth
}

// Resolve runs the slot named name on h:
//   - an absent or empty slot does nothing
//   - a callable is invoked
//   - an alias resolves the named slot on the same handler
//   - a sequence runs its steps in order, recursing into aliases
//
// An alias to a missing slot is a no-op. The first callback error stops
// resolution and is returned. Alias chains deeper than MaxDepth fail with
// CodeAliasCycle instead of recursing forever.
func (r *Resolver) Resolve(ctx context.Context, h *models.Handler, name models.SlotName) error {
	if h == nil {
		return nil
	}
	slot, ok := h.Slot(name)
	if !ok {
		return nil
	}
	r.incrementSlotResolved(name)

	err := r.resolve(ctx, h, slot, name, 0)
	if err == nil {
		return nil
	}
	if dErrors.HasCode(err, dErrors.CodeAliasCycle) {
		r.incrementAliasCycle()
		r.logger.WarnContext(ctx, "slot alias depth exceeded",
			"topic", h.Name,
			"slot", name,
			"max_depth", r.maxDepth,
		)
		return err
	}
	r.incrementCallbackFailure(name)
	return dErrors.Wrap(err, dErrors.CodeCallbackFailed, "callback failed for slot "+string(name))
}

func (r *Resolver) resolve(ctx context.Context, h *models.Handler, slot models.Slot, name models.SlotName, depth int) error {
	if depth > r.maxDepth {
		return dErrors.Newf(dErrors.CodeAliasCycle,
			"slot %q on %q exceeded alias depth %d", name, h.Name, r.maxDepth)
	}

	switch slot.Kind {
	case models.SlotCallable:
		if slot.Fn == nil {
			return nil
		}
		return slot.Fn(ctx)
	case models.SlotAlias:
		return r.follow(ctx, h, slot.Alias, depth)
	case models.SlotSequence:
		for _, step := range slot.Steps {
			var err error
			switch {
			case step.Fn != nil:
				err = step.Fn(ctx)
			case step.IsAlias():
				err = r.follow(ctx, h, step.Alias, depth)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Resolver) follow(ctx context.Context, h *models.Handler, target models.SlotName, depth int) error {
	next, ok := h.Slot(target)
	if !ok {
		return nil
	}
	return r.resolve(ctx, h, next, target, depth+1)
}

func (r *Resolver) incrementSlotResolved(name models.SlotName) {
	if r.metrics != nil {
		r.metrics.IncrementSlotResolved(string(name))
	}
}

func (r *Resolver) incrementCallbackFailure(name models.SlotName) {
	if r.metrics != nil {
		r.metrics.IncrementCallbackFailure(string(name))
	}
}

func (r *Resolver) incrementAliasCycle() {
	if r.metrics != nil {
		r.metrics.IncrementAliasCycle()
	}
}
