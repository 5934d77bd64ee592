package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"consentkit/internal/audit"
	"consentkit/internal/consent/events"
	consentHandler "consentkit/internal/consent/handler"
	"consentkit/internal/consent/kv"
	"consentkit/internal/consent/service"
	"consentkit/internal/consent/store"
	"consentkit/internal/platform/health"
	"consentkit/internal/platform/metrics"
	httptransport "consentkit/internal/transport/http"
	"consentkit/pkg/testutil"
)

// TestContext holds state between test steps.
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte

	// Set only for the in-process server.
	server   *httptest.Server
	recorder *testutil.Recorder
}

// NewTestContext targets BASE_URL when set, otherwise an in-process server
// backed by the cookie store.
func NewTestContext() (*TestContext, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	tc := &TestContext{
		HTTPClient: &http.Client{Timeout: 10 * time.Second, Jar: jar},
	}

	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		tc.BaseURL = baseURL
		return tc, nil
	}

	tc.recorder = testutil.NewRecorder()
	srv, err := newInProcessServer(tc.recorder)
	if err != nil {
		return nil, err
	}
	tc.server = srv
	tc.BaseURL = srv.URL
	return tc, nil
}

func newInProcessServer(rec *testutil.Recorder) (*httptest.Server, error) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	svc := service.New(kv.NewCookie(), service.WithLogger(log))
	publisher := audit.NewPublisher(audit.NewInMemoryStore())
	svc.Subscribe(events.SetStatus, audit.StatusSubscriber(publisher))

	if _, err := svc.Add(context.Background(), testutil.NewHandlerBuilder("analytics").Recording(rec).Build()); err != nil {
		return nil, err
	}

	router := httptransport.NewRouter(log, 10*time.Second, httptransport.Routes{
		Consent:  consentHandler.New(svc, log),
		Audit:    audit.NewHandler(publisher, log),
		Health:   health.New("test"),
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Session:  kv.CookieMiddleware,
	})
	return httptest.NewServer(router), nil
}

// Close stops the in-process server, if any.
func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
	}
}

// POST makes a POST request and stores the response.
func (tc *TestContext) POST(path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, tc.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

// GET makes a GET request and stores the response.
func (tc *TestContext) GET(path string) error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, tc.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// GetResponseField extracts a top-level field from the JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	value, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %s not found in response", field)
	}
	return value, nil
}

// ConsentCookie returns the decoded consent cookie the client would send next.
func (tc *TestContext) ConsentCookie() (string, bool, error) {
	u, err := url.Parse(tc.BaseURL)
	if err != nil {
		return "", false, err
	}
	for _, c := range tc.HTTPClient.Jar.Cookies(u) {
		if c.Name != store.DefaultName {
			continue
		}
		value, err := url.QueryUnescape(c.Value)
		if err != nil {
			return "", false, err
		}
		return value, value != "", nil
	}
	return "", false, nil
}

func (tc *TestContext) ResponseContains(text string) bool {
	return strings.Contains(string(tc.LastResponseBody), text)
}
