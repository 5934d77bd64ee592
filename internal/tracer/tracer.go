// Package tracer is a small tracing abstraction used by the consent service.
//
// Callers depend on the Tracer and Span interfaces only; OTelTracer adapts
// OpenTelemetry and NoopTracer is used in tests and when tracing is off.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks it failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a span and returns a context carrying it.
	//
	// Example:
	//   ctx, span := tr.Start(ctx, tracer.SpanOptIn,
	//       tracer.String(tracer.AttrTopic, "analytics"),
	//   )
	//   defer func() { span.End(err) }()
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the consent service.
const (
	SpanOptIn     = "consent.opt_in"
	SpanOptOut    = "consent.opt_out"
	SpanReset     = "consent.reset"
	SpanResetAll  = "consent.reset_all"
	SpanSetStatus = "consent.set_status"
	SpanAdd       = "consent.add_handler"
	SpanRunAll    = "consent.run_all"
)

// Attribute keys used by the consent service.
const (
	AttrTopic    = "consent.topic"
	AttrStatus   = "consent.status"
	AttrSlot     = "consent.slot"
	AttrHandler  = "consent.handler_id"
	AttrTopics   = "consent.topics"
	AttrHandlers = "consent.handlers"
)

// Event names used by the consent service.
const (
	EventStatusWritten = "status.written"
	EventSlotBroadcast = "slot.broadcast"
)
