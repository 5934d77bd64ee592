package testutil

import (
	"context"
	"fmt"
	"sync"

	"consentkit/internal/consent/models"
)

// Recorder collects callback invocations in call order.
// Use Fn to build labelled callbacks and Calls to assert on the sequence.
type Recorder struct {
	mu    sync.Mutex
	calls []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Fn returns a callback that records label when invoked.
func (r *Recorder) Fn(label string) models.Callback {
	return func(context.Context) error {
		r.Record(label)
		return nil
	}
}

// Failing returns a callback that records label and then fails with err.
func (r *Recorder) Failing(label string, err error) models.Callback {
	return func(context.Context) error {
		r.Record(label)
		return err
	}
}

// Record appends label to the call log.
func (r *Recorder) Record(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, label)
}

// Calls returns a copy of the call log.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Reset clears the call log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// HandlerBuilder provides a fluent interface for building test handlers.
type HandlerBuilder struct {
	topic models.Topic
	slots map[models.SlotName]models.Slot
}

// NewHandlerBuilder starts a handler for topic.
func NewHandlerBuilder(topic models.Topic) *HandlerBuilder {
	return &HandlerBuilder{
		topic: topic,
		slots: make(map[models.SlotName]models.Slot),
	}
}

func (b *HandlerBuilder) On(name models.SlotName, fn models.Callback) *HandlerBuilder {
	b.slots[name] = models.Func(fn)
	return b
}

func (b *HandlerBuilder) Alias(name, target models.SlotName) *HandlerBuilder {
	b.slots[name] = models.Alias(target)
	return b
}

func (b *HandlerBuilder) Sequence(name models.SlotName, steps ...models.Step) *HandlerBuilder {
	b.slots[name] = models.Sequence(steps...)
	return b
}

// Recording sets every lifecycle slot to a callback that records "<topic>:<slot>".
func (b *HandlerBuilder) Recording(rec *Recorder) *HandlerBuilder {
	for _, name := range []models.SlotName{
		models.SlotIfOptedIn,
		models.SlotIfOptedOut,
		models.SlotIfUnknown,
		models.SlotAtReady,
		models.SlotAtReadyIfOptedIn,
		models.SlotAtReadyIfOptedOut,
		models.SlotAtReadyIfUnknown,
		models.SlotAtOptIn,
		models.SlotAtOptOut,
		models.SlotAtReset,
	} {
		b.slots[name] = models.Func(rec.Fn(fmt.Sprintf("%s:%s", b.topic, name)))
	}
	return b
}

func (b *HandlerBuilder) Config() models.HandlerConfig {
	return models.HandlerConfig{Name: b.topic, Slots: b.slots}
}

func (b *HandlerBuilder) Build() *models.Handler {
	return models.NewHandler(b.topic, b.slots)
}
