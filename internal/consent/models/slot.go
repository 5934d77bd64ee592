package models

import "context"

// SlotName identifies a lifecycle hook on a handler. Custom names are legal and
// are typically used as alias targets.
type SlotName string

// Recognized lifecycle slots. The handler topic ("name") is carried by Handler.Name.
const (
	SlotIfOptedIn         SlotName = "if_opted_in"
	SlotIfOptedOut        SlotName = "if_opted_out"
	SlotIfUnknown         SlotName = "if_unknown"
	SlotAtReady           SlotName = "at_ready"
	SlotAtReadyIfOptedIn  SlotName = "at_ready_if_opted_in"
	SlotAtReadyIfOptedOut SlotName = "at_ready_if_opted_out"
	SlotAtReadyIfUnknown  SlotName = "at_ready_if_unknown"
	SlotAtOptIn           SlotName = "at_opt_in"
	SlotAtOptOut          SlotName = "at_opt_out"
	SlotAtReset           SlotName = "at_reset"
)

// ImmediateSlot is the slot resolved on registration for the given status.
func ImmediateSlot(status Status) SlotName {
	switch status {
	case StatusAllow:
		return SlotIfOptedIn
	case StatusBlock:
		return SlotIfOptedOut
	default:
		return SlotIfUnknown
	}
}

// ReadySlot is the status-specific slot resolved after at_ready.
func ReadySlot(status Status) SlotName {
	switch status {
	case StatusAllow:
		return SlotAtReadyIfOptedIn
	case StatusBlock:
		return SlotAtReadyIfOptedOut
	default:
		return SlotAtReadyIfUnknown
	}
}

// Callback is a lifecycle function. A returned error stops resolution and is
// propagated to the caller of the triggering operation.
type Callback func(ctx context.Context) error

// SlotKind tags the variant held by a Slot.
type SlotKind int

const (
	SlotEmpty SlotKind = iota
	SlotCallable
	SlotAlias
	SlotSequence
)

func (k SlotKind) String() string {
	switch k {
	case SlotCallable:
		return "callable"
	case SlotAlias:
		return "alias"
	case SlotSequence:
		return "sequence"
	default:
		return "empty"
	}
}

// Step is one element of a sequence slot: either a callback or an alias.
type Step struct {
	Fn    Callback
	Alias SlotName
}

// IsAlias reports whether the step redirects to another slot.
func (s Step) IsAlias() bool {
	return s.Fn == nil && s.Alias != ""
}

// Call wraps fn as a sequence step.
func Call(fn Callback) Step {
	return Step{Fn: fn}
}

// To makes an alias step pointing at another slot on the same handler.
func To(name SlotName) Step {
	return Step{Alias: name}
}

// Slot is the value of a lifecycle hook:
// Empty | Callable | Alias(slot) | Sequence<Callable|Alias>.
type Slot struct {
	Kind  SlotKind
	Fn    Callback
	Alias SlotName
	Steps []Step
}

// Func builds a callable slot.
func Func(fn Callback) Slot {
	if fn == nil {
		return Slot{}
	}
	return Slot{Kind: SlotCallable, Fn: fn}
}

// Alias builds a slot that redirects to another slot on the same handler.
func Alias(name SlotName) Slot {
	if name == "" {
		return Slot{}
	}
	return Slot{Kind: SlotAlias, Alias: name}
}

// Sequence builds an ordered slot of callbacks and aliases.
func Sequence(steps ...Step) Slot {
	if len(steps) == 0 {
		return Slot{}
	}
	return Slot{Kind: SlotSequence, Steps: append([]Step(nil), steps...)}
}

// IsEmpty reports whether resolving the slot does nothing.
func (s Slot) IsEmpty() bool {
	return s.Kind == SlotEmpty
}
