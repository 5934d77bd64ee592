// Package ready provides the one-shot "host is ready" notification that
// handlers hang their at_ready callbacks on.
package ready

import (
	"context"
	"errors"
	"sync"
)

// Continuation runs once the signal fires.
type Continuation func(ctx context.Context) error

// Signal queues continuations until Fire is called, then runs them in
// registration order exactly once. Registering after Fire runs the
// continuation immediately with the context passed to Fire.
type Signal struct {
	mu      sync.Mutex
	fired   bool
	ctx     context.Context
	pending []Continuation
}

// New returns an unfired signal.
func New() *Signal {
	return &Signal{}
}

// Register queues fn, or runs it right away when the signal already fired.
func (s *Signal) Register(fn Continuation) error {
	if fn == nil {
		return nil
	}
	s.mu.Lock()
	if !s.fired {
		s.pending = append(s.pending, fn)
		s.mu.Unlock()
		return nil
	}
	ctx := s.ctx
	s.mu.Unlock()
	return fn(ctx)
}

// Fire runs every queued continuation. Later calls do nothing. Continuation
// errors do not stop the others; they are joined and returned.
func (s *Signal) Fire(ctx context.Context) error {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return nil
	}
	s.fired = true
	s.ctx = context.WithoutCancel(ctx)
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	var errs []error
	for _, fn := range pending {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Fired reports whether Fire has been called.
func (s *Signal) Fired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}
