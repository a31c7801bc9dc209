// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/beauty-advisor/internal/advisor"
	"github.com/jeranaias/beauty-advisor/internal/config"
)

const testOrigin = "https://shop.example.com"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeUpstream struct {
	mu    sync.Mutex
	calls [][]advisor.ChatMessage
	reply string
	err   error
	panic bool
}

func (f *fakeUpstream) Complete(_ context.Context, msgs []advisor.ChatMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msgs)
	if f.panic {
		panic("boom")
	}
	return f.reply, f.err
}

func (f *fakeUpstream) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type testProxy struct {
	srv  *Server
	up   *fakeUpstream
	logs *bytes.Buffer
}

func newTestProxy(t *testing.T, mutate func(*config.ProxyConfig)) *testProxy {
	t.Helper()
	cfg := config.DefaultProxy()
	cfg.APIKey = "sk-test"
	cfg.AllowedOrigins = []string{testOrigin}
	if mutate != nil {
		mutate(cfg)
	}
	up := &fakeUpstream{reply: "Try a mattifying primer."}
	logs := &bytes.Buffer{}
	srv, err := New(cfg, zerolog.New(logs), WithUpstream(up))
	require.NoError(t, err)
	return &testProxy{srv: srv, up: up, logs: logs}
}

func (p *testProxy) do(method, origin, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	p.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder, origin string) {
	t.Helper()
	assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestPreflight(t *testing.T) {
	p := newTestProxy(t, nil)

	rec := p.do(http.MethodOptions, testOrigin, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assertCORS(t, rec, testOrigin)

	rec = p.do(http.MethodOptions, "https://evil.example.org", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Origin not allowed", rec.Body.String())
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMethodCheckedBeforeOrigin(t *testing.T) {
	p := newTestProxy(t, nil)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := p.do(method, "https://evil.example.org", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.Equal(t, "Method not allowed", rec.Body.String())
		assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Allow"))
	}
	assert.Zero(t, p.up.callCount())
}

func TestPost_DisallowedOrigin(t *testing.T) {
	p := newTestProxy(t, nil)

	rec := p.do(http.MethodPost, "https://evil.example.org", `{"userMessage":"hi"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Origin not allowed", rec.Body.String())
	assert.Zero(t, p.up.callCount())
}

func TestPost_Success(t *testing.T) {
	p := newTestProxy(t, nil)

	rec := p.do(http.MethodPost, testOrigin, `{"userMessage":"Which primer for oily skin?","messages":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Try a mattifying primer."}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assertCORS(t, rec, testOrigin)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	require.Equal(t, 1, p.up.callCount())
	sent := p.up.calls[0]
	require.Len(t, sent, 2)
	assert.Equal(t, advisor.SystemPrompt, sent[0].Content)
	assert.Equal(t, "user", sent[1].Role)
	assert.Equal(t, "Which primer for oily skin?", sent[1].Content)
}

func TestPost_InvalidUserMessage(t *testing.T) {
	p := newTestProxy(t, nil)

	bodies := []string{
		`{}`,
		`{"userMessage":""}`,
		`{"userMessage":null}`,
		`{"userMessage":42}`,
		`{"userMessage":["hi"]}`,
	}
	for _, body := range bodies {
		rec := p.do(http.MethodPost, testOrigin, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"Invalid request: userMessage is required"}`, rec.Body.String(), body)
		assertCORS(t, rec, testOrigin)
	}
	assert.Zero(t, p.up.callCount())
}

func TestPost_MessageLength(t *testing.T) {
	p := newTestProxy(t, nil)

	// Multi-byte runes count as one character each.
	atLimit := strings.Repeat("é", advisor.MaxUserMessageRunes)
	rec := p.do(http.MethodPost, testOrigin, fmt.Sprintf(`{"userMessage":%q}`, atLimit))
	assert.Equal(t, http.StatusOK, rec.Code)

	overLimit := atLimit + "a"
	rec = p.do(http.MethodPost, testOrigin, fmt.Sprintf(`{"userMessage":%q}`, overLimit))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Message too long. Please keep messages under 1000 characters."}`, rec.Body.String())
	assert.Equal(t, 1, p.up.callCount())
}

func TestPost_MalformedBody(t *testing.T) {
	p := newTestProxy(t, nil)

	for _, body := range []string{`not json`, ``, `{"userMessage":"hi","messages":"nope"}`, `{"userMessage":"hi","messages":{"a":1}}`} {
		rec := p.do(http.MethodPost, testOrigin, body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, body)
		assert.JSONEq(t, `{"error":"internal_error","message":"I apologize, but something went wrong. Please try again."}`, rec.Body.String())
	}
	assert.Zero(t, p.up.callCount())
}

func TestPost_BodyTooLarge(t *testing.T) {
	p := newTestProxy(t, nil)

	body := `{"userMessage":"hi","messages":[{"role":"user","content":"` + strings.Repeat("x", MaxBodyBytes) + `"}]}`
	rec := p.do(http.MethodPost, testOrigin, body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, p.up.callCount())
}

func TestPost_HistoryWindow(t *testing.T) {
	p := newTestProxy(t, nil)

	var entries []string
	for i := 0; i < 15; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		entries = append(entries, fmt.Sprintf(`{"role":%q,"content":"m%d"}`, role, i))
	}
	body := `{"userMessage":"latest","messages":[` + strings.Join(entries, ",") + `]}`

	rec := p.do(http.MethodPost, testOrigin, body)
	require.Equal(t, http.StatusOK, rec.Code)

	sent := p.up.calls[0]
	require.Len(t, sent, 12)
	assert.Equal(t, "system", sent[0].Role)
	assert.Equal(t, "m5", sent[1].Content)
	assert.Equal(t, "m14", sent[10].Content)
	assert.Equal(t, "latest", sent[11].Content)
}

func TestPost_LongHistoryTrimmedNotRejected(t *testing.T) {
	p := newTestProxy(t, nil)

	var entries []string
	for i := 0; i < 82; i++ {
		role, content := "user", fmt.Sprintf("q%d", i)
		if i%2 == 1 {
			role, content = "assistant", strings.Repeat("r", 2000)
		}
		entries = append(entries, fmt.Sprintf(`{"role":%q,"content":%q}`, role, content))
	}
	body := `{"userMessage":"one more question","messages":[` + strings.Join(entries, ",") + `]}`
	require.Greater(t, len(body), 64<<10)

	rec := p.do(http.MethodPost, testOrigin, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sent := p.up.calls[0]
	require.Len(t, sent, 12)
	assert.Equal(t, "q72", sent[1].Content)
	assert.Equal(t, "one more question", sent[11].Content)
}

func TestAssembleMessages(t *testing.T) {
	history := []advisor.ChatMessage{
		{Role: "user", Content: "a"},
		{Role: "assistant", Content: "b"},
	}
	got := AssembleMessages(history, "c")

	require.Len(t, got, 4)
	assert.Equal(t, advisor.SystemMessage(), got[0])
	assert.Equal(t, history, got[1:3])
	assert.Equal(t, advisor.ChatMessage{Role: "user", Content: "c"}, got[3])

	assert.Len(t, AssembleMessages(nil, "only"), 2)
}

func TestPost_UpstreamErrorNotLeaked(t *testing.T) {
	p := newTestProxy(t, nil)
	p.up.err = &UpstreamError{StatusCode: http.StatusTooManyRequests, Body: `{"error":"secret quota detail"}`}

	rec := p.do(http.MethodPost, testOrigin, `{"userMessage":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"upstream_unavailable","message":"I apologize, but I'm experiencing technical difficulties. Please try again shortly."}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "secret")
	assertCORS(t, rec, testOrigin)
	assert.Contains(t, p.logs.String(), "secret quota detail")
}

func TestPost_UpstreamTransportError(t *testing.T) {
	p := newTestProxy(t, nil)
	p.up.err = errors.New("dial tcp: connection refused")

	rec := p.do(http.MethodPost, testOrigin, `{"userMessage":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"internal_error"`)
	assert.NotContains(t, rec.Body.String(), "dial tcp")
}

func TestPost_PanicRecovered(t *testing.T) {
	p := newTestProxy(t, nil)
	p.up.panic = true

	rec := p.do(http.MethodPost, testOrigin, `{"userMessage":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"internal_error"`)
	assert.Contains(t, p.logs.String(), "panic recovered")
}

func TestPost_MissingAPIKey(t *testing.T) {
	cfg := config.DefaultProxy()
	cfg.AllowedOrigins = []string{testOrigin}
	srv, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"userMessage":"hi"}`))
	req.Header.Set("Origin", testOrigin)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"configuration_error"`)
}

func TestAllowAllFallback(t *testing.T) {
	p := newTestProxy(t, func(c *config.ProxyConfig) { c.AllowedOrigins = nil })

	assert.Contains(t, p.logs.String(), AllowAllWarning)
	assert.Contains(t, p.logs.String(), `"level":"warn"`)

	rec := p.do(http.MethodPost, "https://anything.test", `{"userMessage":"hi"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assertCORS(t, rec, "https://anything.test")

	rec = p.do(http.MethodPost, "", `{"userMessage":"hi"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assertCORS(t, rec, "*")

	assert.Contains(t, p.logs.String(), `"origin_policy":"allow_all"`)
	assert.Equal(t, 2.0, testutil.ToFloat64(p.srv.Metrics().AllowAllRequests))
}

func TestAllowListedOriginNotTagged(t *testing.T) {
	p := newTestProxy(t, nil)

	p.do(http.MethodPost, testOrigin, `{"userMessage":"hi"}`)
	assert.NotContains(t, p.logs.String(), AllowAllWarning)
	assert.NotContains(t, p.logs.String(), "origin_policy")
	assert.Zero(t, testutil.ToFloat64(p.srv.Metrics().AllowAllRequests))
}

func TestRateLimit(t *testing.T) {
	p := newTestProxy(t, func(c *config.ProxyConfig) { c.RateLimitPerMinute = 2 })

	for i := 0; i < 2; i++ {
		rec := p.do(http.MethodPost, testOrigin, `{"userMessage":"hi"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := p.do(http.MethodPost, testOrigin, `{"userMessage":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rate_limited"`)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, 2, p.up.callCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(p.srv.Metrics().RequestsTotal.WithLabelValues(OutcomeRateLimited)))
}

func TestHealthAndMetrics(t *testing.T) {
	p := newTestProxy(t, nil)
	p.do(http.MethodPost, testOrigin, `{"userMessage":"hi"}`)

	rec := p.do(http.MethodGet, "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	p.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	p.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `advisor_proxy_requests_total{outcome="ok"} 1`)

	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec = httptest.NewRecorder()
	p.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCustomPath(t *testing.T) {
	p := newTestProxy(t, func(c *config.ProxyConfig) { c.Path = "/api/chat" })

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"userMessage":"hi"}`))
	req.Header.Set("Origin", testOrigin)
	rec := httptest.NewRecorder()
	p.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_InvalidTrustedProxy(t *testing.T) {
	cfg := config.DefaultProxy()
	cfg.TrustedProxies = []string{"not-an-ip"}
	_, err := New(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	p := newTestProxy(t, func(c *config.ProxyConfig) {
		c.Addr = "127.0.0.1:0"
		c.RateLimitPerMinute = 5
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.srv.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
