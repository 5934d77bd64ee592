package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"consentkit/internal/audit"
	"consentkit/internal/consent/events"
	consentHandler "consentkit/internal/consent/handler"
	"consentkit/internal/consent/kv"
	"consentkit/internal/consent/service"
	"consentkit/internal/platform/health"
	"consentkit/internal/platform/metrics"
)

type RouterSuite struct {
	suite.Suite
	log *slog.Logger
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RouterSuite) serve(backend kv.Store, session func(http.Handler) http.Handler) *httptest.Server {
	reg := prometheus.NewRegistry()
	svc := service.New(backend, service.WithLogger(s.log))
	publisher := audit.NewPublisher(audit.NewInMemoryStore())
	svc.Subscribe(events.SetStatus, audit.StatusSubscriber(publisher))

	srv := httptest.NewServer(NewRouter(s.log, 5*time.Second, Routes{
		Consent:  consentHandler.New(svc, s.log),
		Audit:    audit.NewHandler(publisher, s.log),
		Health:   health.New("test"),
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Session:  session,
	}))
	s.T().Cleanup(srv.Close)
	return srv
}

func (s *RouterSuite) client() *http.Client {
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func (s *RouterSuite) post(c *http.Client, url, body string) *http.Response {
	resp, err := c.Post(url, "application/json", bytes.NewBufferString(body))
	s.Require().NoError(err)
	s.T().Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *RouterSuite) status(c *http.Client, url string) string {
	resp, err := c.Get(url)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var got consentHandler.StatusResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&got))
	return got.Status
}

func (s *RouterSuite) TestSharedBackendIsolatesClients() {
	attrs := kv.Attributes{MaxAge: kv.Days(1)}
	srv := s.serve(kv.NewScoped(kv.NewMemory()), kv.SubjectMiddleware(attrs))
	alice, bob := s.client(), s.client()

	resp := s.post(alice, srv.URL+"/consent/opt-in", `{"topic":"ads"}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	s.Equal("allow", s.status(alice, srv.URL+"/consent/ads"))
	s.Equal("unknown", s.status(bob, srv.URL+"/consent/ads"))

	resp = s.post(bob, srv.URL+"/consent/opt-out", `{"topic":"ads"}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	s.Equal("allow", s.status(alice, srv.URL+"/consent/ads"))
	s.Equal("block", s.status(bob, srv.URL+"/consent/ads"))
}

func (s *RouterSuite) TestCookieBackendRoundTrip() {
	srv := s.serve(kv.NewCookie(), kv.CookieMiddleware)
	alice, bob := s.client(), s.client()

	resp := s.post(alice, srv.URL+"/consent/opt-in", `{"topic":"stats"}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	s.Equal("allow", s.status(alice, srv.URL+"/consent/stats"))
	s.Equal("unknown", s.status(bob, srv.URL+"/consent/stats"))
}

func (s *RouterSuite) TestConsentRoutesRejectNonJSONBody() {
	srv := s.serve(kv.NewCookie(), kv.CookieMiddleware)

	resp, err := s.client().Post(srv.URL+"/consent/opt-in", "text/plain", strings.NewReader("topic=ads"))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnsupportedMediaType, resp.StatusCode)
}

func (s *RouterSuite) TestConsentRoutesLimitBodySize() {
	srv := s.serve(kv.NewCookie(), kv.CookieMiddleware)

	body := `{"topic":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	resp := s.post(s.client(), srv.URL+"/consent/opt-in", body)
	s.GreaterOrEqual(resp.StatusCode, http.StatusBadRequest)
	s.Less(resp.StatusCode, http.StatusInternalServerError)
}

func (s *RouterSuite) TestOperationalRoutes() {
	srv := s.serve(kv.NewCookie(), kv.CookieMiddleware)
	c := s.client()

	for _, path := range []string{"/health/live", "/metrics"} {
		resp, err := c.Get(srv.URL + path)
		s.Require().NoError(err)
		resp.Body.Close()
		s.Equal(http.StatusOK, resp.StatusCode, path)
	}
}
