package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerList(t *testing.T) {
	ctx := context.Background()
	p := NewPublisher(NewInMemoryStore())
	require.NoError(t, p.Emit(ctx, Event{Action: ActionStatusChanged, Topic: "ads", Status: "allow"}))
	require.NoError(t, p.Emit(ctx, Event{Action: ActionStatusCleared, Topic: "stats", Status: "unknown"}))

	r := chi.NewRouter()
	NewHandler(p, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	t.Run("all events", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Events, 2)
	})

	t.Run("filtered by topic", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?topic=stats", nil))

		var resp ListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Events, 1)
		assert.Equal(t, ActionStatusCleared, resp.Events[0].Action)
	})

	t.Run("unknown topic yields empty list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?topic=none", nil))
		assert.JSONEq(t, `{"events":[]}`, rec.Body.String())
	})
}
