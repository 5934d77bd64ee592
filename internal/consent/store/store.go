// Package store encodes the per-topic consent record into a single persisted value.
package store

import (
	"context"
	"log/slog"
	"time"

	"consentkit/internal/consent/events"
	"consentkit/internal/consent/kv"
	"consentkit/internal/consent/metrics"
	"consentkit/internal/consent/models"
	dErrors "consentkit/pkg/domain-errors"
)

// KV is the persisted key-value backend.
// Error Contract:
// - Get returns ok=false with a nil error when the value is absent
// - Set and Delete return nil on success or wrapped errors on failure
type KV interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, value string, attrs kv.Attributes) error
	Delete(ctx context.Context, name string, attrs kv.Attributes) error
}

// Notifier receives a set_status event after every write.
type Notifier interface {
	Notify(ctx context.Context, event string, args ...any) error
}

const (
	DefaultName = "CookieManager"
	DefaultDays = 730
)

// Config controls the name and attributes of the persisted value.
type Config struct {
	Name   string
	Days   int
	Path   string
	Domain string
	Secure bool
}

// DefaultConfig returns the defaults used when no configuration is given.
func DefaultConfig() Config {
	return Config{
		Name: DefaultName,
		Days: DefaultDays,
		Path: kv.DefaultPath,
	}
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Days <= 0 {
		c.Days = DefaultDays
	}
	if c.Path == "" {
		c.Path = kv.DefaultPath
	}
	return c
}

func (c Config) attributes() kv.Attributes {
	return kv.Attributes{
		MaxAge: kv.Days(c.Days),
		Path:   c.Path,
		Domain: c.Domain,
		Secure: c.Secure,
	}
}

type Option func(*Store)

// WithConfig overrides the persisted value name and attributes.
// Zero fields fall back to DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(s *Store) {
		s.cfg = cfg.withDefaults()
	}
}

// WithLogger sets the logger instance for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics instance for the store.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// Store reads and writes the topic -> status record.
//
// Every write rereads the full record first, so the last writer wins and no
// topic is lost between writes made through the same backend.
type Store struct {
	kv       KV
	notifier Notifier
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New creates a Store. A nil notifier disables set_status events.
func New(backend KV, notifier Notifier, opts ...Option) *Store {
	s := &Store{
		kv:       backend,
		notifier: notifier,
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Config returns the effective configuration.
func (s *Store) Config() Config {
	return s.cfg
}

// Statuses returns the full record. A missing value is an empty record.
func (s *Store) Statuses(ctx context.Context) (models.Record, error) {
	start := time.Now()
	defer s.observeLatency("read", start)

	value, ok, err := s.kv.Get(ctx, s.cfg.Name)
	if err != nil {
		return models.Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read consent")
	}
	if !ok {
		return models.NewRecord(), nil
	}
	return models.ParseRecord(value), nil
}

// GetStatus returns allow or block when recorded, unknown otherwise.
func (s *Store) GetStatus(ctx context.Context, topic models.Topic) (models.Status, error) {
	record, err := s.Statuses(ctx)
	if err != nil {
		return models.StatusUnknown, err
	}
	return record.Get(topic), nil
}

// SetStatus records status for topic; StatusUnknown removes the topic. Topics
// that would corrupt the encoding are rejected with CodeInvalidInput. An
// empty record deletes the persisted value. The set_status event fires after
// the write whether or not the status changed. Any status other than allow or
// block is stored and published as StatusUnknown.
func (s *Store) SetStatus(ctx context.Context, topic models.Topic, status models.Status) error {
	if err := topic.Validate(); err != nil {
		return err
	}
	status = models.ParseStatus(string(status))
	record, err := s.Statuses(ctx)
	if err != nil {
		return err
	}
	record.Set(topic, status)

	if err := s.write(ctx, record); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "consent status written",
		"topic", topic,
		"status", status,
		"topics", record.Len(),
	)

	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.Notify(ctx, events.SetStatus, topic, status); err != nil {
		return dErrors.Wrap(err, dErrors.CodeCallbackFailed, "set_status subscriber failed")
	}
	return nil
}

// Reset forgets the decision for topic.
func (s *Store) Reset(ctx context.Context, topic models.Topic) error {
	return s.SetStatus(ctx, topic, models.StatusUnknown)
}

func (s *Store) write(ctx context.Context, record models.Record) error {
	start := time.Now()
	attrs := s.cfg.attributes()

	if record.Len() == 0 {
		defer s.observeLatency("delete", start)
		if err := s.kv.Delete(ctx, s.cfg.Name, attrs); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete consent")
		}
		s.observeTopics(0)
		return nil
	}

	defer s.observeLatency("write", start)
	if err := s.kv.Set(ctx, s.cfg.Name, record.Encode(), attrs); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write consent")
	}
	s.observeTopics(record.Len())
	return nil
}

func (s *Store) observeLatency(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStoreOperationLatency(operation, time.Since(start).Seconds())
	}
}

func (s *Store) observeTopics(n int) {
	if s.metrics != nil {
		s.metrics.ObserveTopicsPerRecord(float64(n))
	}
}
