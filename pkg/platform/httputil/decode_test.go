package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "consentkit/pkg/domain-errors"
)

type topicRequest struct {
	Topic      string `json:"topic"`
	sanitized  bool
	normalized bool
}

func (r *topicRequest) Sanitize() {
	r.sanitized = true
	r.Topic = strings.TrimSpace(r.Topic)
}

func (r *topicRequest) Normalize() {
	r.normalized = true
}

func (r *topicRequest) Validate() error {
	if r.Topic == "" {
		return errors.New("topic is required")
	}
	return nil
}

type domainErrorRequest struct {
	Topic string `json:"topic"`
}

func (r *domainErrorRequest) Validate() error {
	if r.Topic == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "topic must be set")
	}
	return nil
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDecodeJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("successful decode", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"topic":"ads"}`))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[topicRequest](w, req, logger, ctx, "req-1")
		require.True(t, ok)
		assert.Equal(t, "ads", result.Topic)
	})

	for name, body := range map[string]string{
		"invalid JSON": `{invalid`,
		"empty body":   ``,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			result, ok := DecodeJSON[topicRequest](w, req, logger, ctx, "req-1")
			assert.False(t, ok)
			assert.Nil(t, result)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "bad_request", decodeError(t, w)["error"])
		})
	}
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("runs sanitize normalize validate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"topic":"  ads "}`))
		w := httptest.NewRecorder()

		result, ok := DecodeAndPrepare[topicRequest](w, req, logger, ctx, "req-1")
		require.True(t, ok)
		assert.Equal(t, "ads", result.Topic)
		assert.True(t, result.sanitized)
		assert.True(t, result.normalized)
	})

	t.Run("plain validation error maps to validation_error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"topic":"  "}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[topicRequest](w, req, logger, ctx, "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "validation_error", body["error"])
		assert.Contains(t, body["error_description"], "topic is required")
	})

	t.Run("domain error code is preserved", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"topic":""}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[domainErrorRequest](w, req, logger, ctx, "req-1")
		assert.False(t, ok)
		assert.Equal(t, "bad_request", decodeError(t, w)["error"])
	})
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDesc   string
	}{
		{"validation", dErrors.New(dErrors.CodeValidation, "topic is required"), http.StatusBadRequest, "validation_error", "topic is required"},
		{"alias cycle", dErrors.New(dErrors.CodeAliasCycle, "too deep"), http.StatusUnprocessableEntity, "alias_cycle", "too deep"},
		{"callback", dErrors.Wrap(errors.New("boom"), dErrors.CodeCallbackFailed, "callback failed"), http.StatusUnprocessableEntity, "callback_failed", "callback failed"},
		{"internal hides message", dErrors.New(dErrors.CodeInternal, "redis down"), http.StatusInternalServerError, "internal_error", ""},
		{"unavailable", dErrors.New(dErrors.CodeUnavailable, "backend unavailable"), http.StatusServiceUnavailable, "unavailable", "backend unavailable"},
		{"plain error", errors.New("unexpected"), http.StatusInternalServerError, "internal_error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			body := decodeError(t, w)
			assert.Equal(t, tt.wantCode, body["error"])
			assert.Equal(t, tt.wantDesc, body["error_description"])
		})
	}
}
