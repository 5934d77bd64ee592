package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"consentkit/internal/consent/models"
	"consentkit/internal/platform/middleware"
	"consentkit/pkg/platform/httputil"
)

// Service defines the consent operations the HTTP surface drives.
type Service interface {
	GetStatus(ctx context.Context, topic models.Topic) (models.Status, error)
	Statuses(ctx context.Context) (models.Record, error)
	OptIn(ctx context.Context, topic models.Topic) error
	OptOut(ctx context.Context, topic models.Topic) error
	Reset(ctx context.Context, topic models.Topic) error
	ResetAll(ctx context.Context) ([]models.Topic, error)
}

// Handler handles consent endpoints.
type Handler struct {
	logger  *slog.Logger
	consent Service
}

// New creates a new consent Handler.
func New(consent Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, consent: consent}
}

// Register registers the consent routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/consent", func(r chi.Router) {
		r.Get("/", h.HandleStatuses)
		r.Get("/{topic}", h.HandleGetStatus)
		r.Post("/opt-in", h.transition("opt_in", models.StatusAllow, h.consent.OptIn))
		r.Post("/opt-out", h.transition("opt_out", models.StatusBlock, h.consent.OptOut))
		r.Post("/reset", h.transition("reset", models.StatusUnknown, h.consent.Reset))
		r.Post("/reset-all", h.HandleResetAll)
	})
}

// HandleStatuses returns every stored decision.
func (h *Handler) HandleStatuses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	record, err := h.consent.Statuses(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read consent",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusesResponse(record))
}

// HandleGetStatus returns the decision for one topic; unknown topics report "unknown".
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	topic, err := topicParam(chi.URLParam(r, "topic"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid topic", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	status, err := h.consent.GetStatus(ctx, topic)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read consent status",
			"request_id", requestID,
			"topic", topic,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(topic, status))
}

func (h *Handler) transition(op string, result models.Status, apply func(context.Context, models.Topic) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := middleware.GetRequestID(ctx)

		req, ok := httputil.DecodeAndPrepare[TopicRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		topic := req.ToTopic()

		if err := apply(ctx, topic); err != nil {
			h.logger.ErrorContext(ctx, "consent transition failed",
				"request_id", requestID,
				"operation", op,
				"topic", topic,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, toStatusResponse(topic, result))
	}
}

// HandleResetAll clears every stored decision.
func (h *Handler) HandleResetAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reset, err := h.consent.ResetAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "reset all failed",
			"request_id", middleware.GetRequestID(ctx),
			"reset", len(reset),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResetAllResponse(reset))
}
