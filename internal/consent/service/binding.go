package service

import (
	"context"

	"consentkit/internal/consent/models"
)

// Binding scopes lifecycle operations to one handler's topic, so integration
// code can act on "its" consent without repeating the topic name.
type Binding struct {
	svc     *Service
	handler *models.Handler
}

// Bind returns a Binding for h. A nil handler binds to the default topic.
func (s *Service) Bind(h *models.Handler) *Binding {
	if h == nil {
		h = models.NewHandler(models.DefaultTopic, nil)
	}
	return &Binding{svc: s, handler: h}
}

// Handler returns the bound handler.
func (b *Binding) Handler() *models.Handler {
	return b.handler
}

// Topic returns the bound handler's topic.
func (b *Binding) Topic() models.Topic {
	return b.handler.Name
}

// Status returns the stored status for the bound topic.
func (b *Binding) Status(ctx context.Context) (models.Status, error) {
	return b.svc.GetStatus(ctx, b.handler.Name)
}

// OptIn records allow for the bound topic and runs its at_opt_in slot.
func (b *Binding) OptIn(ctx context.Context) error {
	return b.svc.OptIn(ctx, b.handler.Name)
}

// OptOut records block for the bound topic and runs its at_opt_out slot.
func (b *Binding) OptOut(ctx context.Context) error {
	return b.svc.OptOut(ctx, b.handler.Name)
}

// Reset forgets the bound topic's decision and runs its at_reset slot.
func (b *Binding) Reset(ctx context.Context) error {
	return b.svc.Reset(ctx, b.handler.Name)
}
