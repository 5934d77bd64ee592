package handler

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

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"consentkit/internal/consent/kv"
	"consentkit/internal/consent/models"
	"consentkit/internal/consent/service"
	"consentkit/internal/consent/store/mocks"
	"consentkit/pkg/testutil"
)

type ConsentHandlerSuite struct {
	suite.Suite
	ctx     context.Context
	service *service.Service
	router  chi.Router
	rec     *testutil.Recorder
}

func TestConsentHandlerSuite(t *testing.T) {
	suite.Run(t, new(ConsentHandlerSuite))
}

func (s *ConsentHandlerSuite) SetupTest() {
	s.ctx = context.Background()
	s.rec = testutil.NewRecorder()
	s.service = service.New(kv.NewMemory(), service.WithLogger(discardLogger()))
	s.router = newRouter(s.service)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(svc Service) chi.Router {
	r := chi.NewRouter()
	New(svc, discardLogger()).Register(r)
	return r
}

func (s *ConsentHandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ConsentHandlerSuite) assertStatusAndError(w *httptest.ResponseRecorder, status int, code string) {
	s.Require().Equal(status, w.Code, w.Body.String())
	var body map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal(code, body["error"])
}

func decode[T any](s *ConsentHandlerSuite, w *httptest.ResponseRecorder) T {
	var out T
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *ConsentHandlerSuite) TestOptInRunsHandlersAndPersists() {
	_, err := s.service.Add(s.ctx, testutil.NewHandlerBuilder("analytics").Recording(s.rec).Build())
	s.Require().NoError(err)
	s.rec.Reset()

	w := s.do(http.MethodPost, "/consent/opt-in", TopicRequest{Topic: "analytics"})

	s.Require().Equal(http.StatusOK, w.Code)
	resp := decode[StatusResponse](s, w)
	s.Equal(StatusResponse{Topic: "analytics", Status: "allow"}, resp)
	s.Equal([]string{"analytics:at_opt_in"}, s.rec.Calls())

	status, err := s.service.GetStatus(s.ctx, "analytics")
	s.Require().NoError(err)
	s.Equal(models.StatusAllow, status)
}

func (s *ConsentHandlerSuite) TestOptOutAndReset() {
	w := s.do(http.MethodPost, "/consent/opt-out", TopicRequest{Topic: "marketing"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("block", decode[StatusResponse](s, w).Status)

	w = s.do(http.MethodPost, "/consent/reset", TopicRequest{Topic: "marketing"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("unknown", decode[StatusResponse](s, w).Status)

	record, err := s.service.Statuses(s.ctx)
	s.Require().NoError(err)
	s.Zero(record.Len())
}

func (s *ConsentHandlerSuite) TestGetStatus() {
	s.Run("unknown topic reports unknown", func() {
		w := s.do(http.MethodGet, "/consent/video", nil)
		s.Require().Equal(http.StatusOK, w.Code)
		s.Equal(StatusResponse{Topic: "video", Status: "unknown"}, decode[StatusResponse](s, w))
	})

	s.Run("stored topic", func() {
		s.Require().NoError(s.service.OptIn(s.ctx, "video"))
		w := s.do(http.MethodGet, "/consent/video", nil)
		s.Equal("allow", decode[StatusResponse](s, w).Status)
	})
}

func (s *ConsentHandlerSuite) TestStatusesAndResetAll() {
	s.Require().NoError(s.service.OptIn(s.ctx, "analytics"))
	s.Require().NoError(s.service.OptOut(s.ctx, "marketing"))

	w := s.do(http.MethodGet, "/consent", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(map[string]string{"analytics": "allow", "marketing": "block"},
		decode[StatusesResponse](s, w).Statuses)

	w = s.do(http.MethodPost, "/consent/reset-all", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.ElementsMatch([]string{"analytics", "marketing"}, decode[ResetAllResponse](s, w).Reset)

	w = s.do(http.MethodGet, "/consent", nil)
	s.Empty(decode[StatusesResponse](s, w).Statuses)
}

func (s *ConsentHandlerSuite) TestValidation() {
	cases := []struct {
		name  string
		topic string
	}{
		{"missing topic", ""},
		{"blank topic", "   "},
		{"record separator", "a,b"},
		{"pair separator", "a=b"},
		{"cookie terminator", "a;b"},
		{"inner whitespace", "ad tracking"},
		{"too long", strings.Repeat("t", 65)},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			w := s.do(http.MethodPost, "/consent/opt-in", TopicRequest{Topic: tc.topic})
			s.assertStatusAndError(w, http.StatusBadRequest, "validation_error")
		})
	}

	s.Run("malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/consent/opt-in", strings.NewReader("{"))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.assertStatusAndError(w, http.StatusBadRequest, "bad_request")
	})

	s.Run("invalid path topic", func() {
		w := s.do(http.MethodGet, "/consent/a=b", nil)
		s.assertStatusAndError(w, http.StatusBadRequest, "validation_error")
	})
}

func (s *ConsentHandlerSuite) TestCallbackFailureMapsTo422() {
	_, err := s.service.Add(s.ctx, testutil.NewHandlerBuilder("analytics").
		On(models.SlotAtOptIn, s.rec.Failing("boom", errors.New("tag manager down"))).
		Build())
	s.Require().NoError(err)

	w := s.do(http.MethodPost, "/consent/opt-in", TopicRequest{Topic: "analytics"})
	s.assertStatusAndError(w, http.StatusUnprocessableEntity, "callback_failed")
}

func (s *ConsentHandlerSuite) TestBackendFailureHidesDetails() {
	ctrl := gomock.NewController(s.T())
	backend := mocks.NewMockKV(ctrl)
	backend.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", false, errors.New("dial tcp: refused")).AnyTimes()

	s.router = newRouter(service.New(backend, service.WithLogger(discardLogger())))

	w := s.do(http.MethodGet, "/consent", nil)
	s.assertStatusAndError(w, http.StatusInternalServerError, "internal_error")
	s.NotContains(w.Body.String(), "refused")
}
