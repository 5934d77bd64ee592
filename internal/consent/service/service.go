// Package service is the consent lifecycle orchestrator: the single object a
// host constructs to record decisions and drive handler callbacks.
package service

import (
	"context"
	"log/slog"

	"consentkit/internal/consent/events"
	"consentkit/internal/consent/metrics"
	"consentkit/internal/consent/models"
	"consentkit/internal/consent/registry"
	"consentkit/internal/consent/resolver"
	"consentkit/internal/consent/store"
	"consentkit/internal/tracer"
)

type Option func(*Service)

// WithLogger sets the logger instance for the service and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics instance for the service and its components.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer sets the tracer. Defaults to a no-op tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithReadySignal wires at_ready dispatch to sig.
func WithReadySignal(sig registry.ReadySignal) Option {
	return func(s *Service) {
		s.ready = sig
	}
}

// WithStoreConfig overrides the persisted value name and attributes.
func WithStoreConfig(cfg store.Config) Option {
	return func(s *Service) {
		s.storeCfg = cfg
	}
}

// WithMaxAliasDepth bounds alias resolution depth.
func WithMaxAliasDepth(depth int) Option {
	return func(s *Service) {
		s.maxAliasDepth = depth
	}
}

// WithBus shares an existing event bus instead of creating one.
func WithBus(bus *events.Bus) Option {
	return func(s *Service) {
		s.bus = bus
	}
}

// Service owns the consent store, the handler registry and the event bus.
// Construct one per application and pass it to every collaborator.
type Service struct {
	store    *store.Store
	registry *registry.Registry
	bus      *events.Bus

	ready         registry.ReadySignal
	storeCfg      store.Config
	maxAliasDepth int
	tracer        tracer.Tracer
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// New wires a Service over backend.
func New(backend store.KV, opts ...Option) *Service {
	s := &Service{
		storeCfg:      store.DefaultConfig(),
		maxAliasDepth: resolver.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = tracer.NewNoop()
	}
	if s.bus == nil {
		s.bus = events.New()
	}

	s.store = store.New(backend, s.bus,
		store.WithConfig(s.storeCfg),
		store.WithLogger(s.logger),
		store.WithMetrics(s.metrics),
	)
	res := resolver.New(
		resolver.WithMaxDepth(s.maxAliasDepth),
		resolver.WithLogger(s.logger),
		resolver.WithMetrics(s.metrics),
	)
	regOpts := []registry.Option{
		registry.WithLogger(s.logger),
		registry.WithMetrics(s.metrics),
	}
	if s.ready != nil {
		regOpts = append(regOpts, registry.WithReadySignal(s.ready))
	}
	s.registry = registry.New(s.store, res, regOpts...)
	return s
}

// StoreConfig returns the effective persisted value configuration.
func (s *Service) StoreConfig() store.Config {
	return s.store.Config()
}

// GetStatus returns the recorded decision for topic, or unknown.
func (s *Service) GetStatus(ctx context.Context, topic models.Topic) (models.Status, error) {
	return s.store.GetStatus(ctx, topic)
}

// SetStatus writes status without running any handler slots. It still
// publishes set_status.
func (s *Service) SetStatus(ctx context.Context, topic models.Topic, status models.Status) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanSetStatus,
		tracer.String(tracer.AttrTopic, string(topic)),
		tracer.String(tracer.AttrStatus, string(status)),
	)
	defer func() { span.End(err) }()
	return s.store.SetStatus(ctx, topic, status)
}

// Statuses returns every recorded decision.
func (s *Service) Statuses(ctx context.Context) (models.Record, error) {
	return s.store.Statuses(ctx)
}

// Add registers a handler and runs its status slot immediately.
func (s *Service) Add(ctx context.Context, spec models.Spec) (h *models.Handler, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanAdd)
	defer func() { span.End(err) }()

	h, err = s.registry.Add(ctx, spec)
	if h != nil {
		span.SetAttributes(
			tracer.String(tracer.AttrHandler, h.ID),
			tracer.String(tracer.AttrTopic, string(h.Name)),
		)
	}
	return h, err
}

// RunAll resolves slot on every handler registered for topic.
func (s *Service) RunAll(ctx context.Context, topic models.Topic, slot models.SlotName) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRunAll,
		tracer.String(tracer.AttrTopic, string(topic)),
		tracer.String(tracer.AttrSlot, string(slot)),
	)
	defer func() { span.End(err) }()
	return s.registry.RunAll(ctx, topic, slot)
}

// Handlers returns the registered handlers in registration order.
func (s *Service) Handlers() []*models.Handler {
	return s.registry.Handlers()
}

// Subscribe adds fn to the subscribers of event.
func (s *Service) Subscribe(event string, fn events.Subscriber) {
	s.bus.Subscribe(event, fn)
}

// Notify publishes event to its subscribers.
func (s *Service) Notify(ctx context.Context, event string, args ...any) error {
	return s.bus.Notify(ctx, event, args...)
}
