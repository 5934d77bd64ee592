package audit

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"consentkit/internal/platform/middleware"
	"consentkit/pkg/platform/httputil"
)

// Handler exposes recorded audit events read-only.
type Handler struct {
	publisher *Publisher
	logger    *slog.Logger
}

func NewHandler(publisher *Publisher, logger *slog.Logger) *Handler {
	return &Handler{publisher: publisher, logger: logger}
}

// Register mounts GET /audit. An optional ?topic= narrows the listing.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.HandleList)
}

// ListResponse wraps the listed events.
type ListResponse struct {
	Events []Event `json:"events"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		events []Event
		err    error
	)
	if topic := r.URL.Query().Get("topic"); topic != "" {
		events, err = h.publisher.ListByTopic(ctx, topic)
	} else {
		events, err = h.publisher.List(ctx)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Events: events})
}
