package models

import (
	"maps"

	"github.com/google/uuid"
)

// Spec is anything the registry can add: a ready *Handler or a HandlerConfig.
type Spec interface {
	ToHandler() *Handler
}

// HandlerConfig is the plain configuration form of a handler.
type HandlerConfig struct {
	Name  Topic
	Slots map[SlotName]Slot
}

// ToHandler normalizes the config into a Handler.
func (c HandlerConfig) ToHandler() *Handler {
	return NewHandler(c.Name, c.Slots)
}

// Handler is a registered bundle of lifecycle callbacks tied to one topic.
// It is immutable once built; the registry never changes its fields.
type Handler struct {
	ID    string
	Name  Topic
	slots map[SlotName]Slot
}

// NewHandler builds a handler for topic. An empty topic becomes DefaultTopic and
// empty slots are dropped.
func NewHandler(topic Topic, slots map[SlotName]Slot) *Handler {
	if topic == "" {
		topic = DefaultTopic
	}
	h := &Handler{
		ID:    uuid.NewString(),
		Name:  topic,
		slots: make(map[SlotName]Slot, len(slots)),
	}
	for name, slot := range slots {
		if slot.IsEmpty() {
			continue
		}
		h.slots[name] = slot
	}
	return h
}

// ToHandler returns the handler itself.
func (h *Handler) ToHandler() *Handler {
	return h
}

// Slot looks up a named slot.
func (h *Handler) Slot(name SlotName) (Slot, bool) {
	if h == nil {
		return Slot{}, false
	}
	s, ok := h.slots[name]
	return s, ok
}

// SlotNames returns the names of all slots that are set.
func (h *Handler) SlotNames() []SlotName {
	names := make([]SlotName, 0, len(h.slots))
	for name := range maps.Keys(h.slots) {
		names = append(names, name)
	}
	return names
}
