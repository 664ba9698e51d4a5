package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
	"github.com/yanqian/multimodal-summarizer/internal/infra/config"
	"github.com/yanqian/multimodal-summarizer/internal/infra/filesource"
	"github.com/yanqian/multimodal-summarizer/internal/infra/formsession"
	"github.com/yanqian/multimodal-summarizer/internal/infra/summarizeapi"
	"github.com/yanqian/multimodal-summarizer/pkg/metrics"
)

func TestRouter_PageRendersEmptyForm(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Multi-Modal Summarizer")
	require.Contains(t, body, "Custom Prompt")
	require.Contains(t, body, "Summarize")
	require.NotContains(t, body, "Summary:")
	require.NotContains(t, body, "<dialog")
	require.NotEmpty(t, env.cookie)
}

func TestRouter_SubmitWithoutFileShowsNotice(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, formRequest("/form/submit", url.Values{"prompt": {"X"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	page := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Contains(t, page.Body.String(), "Upload a file first!")
	require.Zero(t, env.endpoint.count())

	dismissed := env.do(t, formRequest("/form/notice/dismiss", nil))
	require.Equal(t, http.StatusSeeOther, dismissed.Code)
	require.Nil(t, env.state(t).Notice)
}

func TestRouter_SubmitSendsFileAndPrompt(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, multipartRequest(t, "/form/submit", "notes.txt", []byte("quarterly numbers"), map[string]string{"prompt": "X"}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	parts := env.endpoint.lastParts()
	require.Len(t, parts, 2)
	require.Equal(t, "file", parts[0].name)
	require.Equal(t, "notes.txt", parts[0].filename)
	require.Equal(t, "quarterly numbers", parts[0].content)
	require.Equal(t, "prompt", parts[1].name)
	require.Equal(t, "X", parts[1].content)

	state := env.state(t)
	require.Equal(t, "Hello", state.Summary)
	require.Nil(t, state.Notice)
	require.Equal(t, "notes.txt", state.File.Name)
	require.Equal(t, "17 B", state.File.DisplaySize)

	page := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Contains(t, page.Body.String(), "Summary:")
	require.Contains(t, page.Body.String(), "Hello")
}

func TestRouter_EmptyPromptIsSent(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(t, multipartRequest(t, "/form/submit", "a.txt", []byte("a"), map[string]string{"prompt": ""}))
	parts := env.endpoint.lastParts()
	require.Len(t, parts, 2)
	require.Equal(t, "prompt", parts[1].name)
	require.Empty(t, parts[1].content)
}

func TestRouter_EndpointFailureKeepsSummary(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(t, multipartRequest(t, "/form/submit", "a.txt", []byte("a"), nil))
	require.Equal(t, "Hello", env.state(t).Summary)

	env.endpoint.respond(http.StatusInternalServerError, `{"detail":"OpenAI error"}`)
	rec := env.do(t, multipartRequest(t, "/api/v1/form/submit", "", nil, map[string]string{"prompt": "again"}))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "request_failed", errBody["error"]["code"])
	require.Contains(t, errBody["error"]["message"], "Request failed with status code 500")

	state := env.state(t)
	require.Equal(t, "Hello", state.Summary)
	require.Equal(t, form.NoticeRequestFailed, state.Notice.Kind)
	require.True(t, strings.HasPrefix(state.Notice.Message, "Error: "))
}

func TestRouter_FreshFormFailureLeavesSummaryEmpty(t *testing.T) {
	env := newTestEnv(t, nil)
	env.endpoint.respond(http.StatusInternalServerError, `boom`)

	rec := env.do(t, multipartRequest(t, "/api/v1/form/submit", "a.txt", []byte("a"), nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Empty(t, env.state(t).Summary)
}

func TestRouter_APISubmitWithoutFile(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, formRequest("/api/v1/form/submit", url.Values{"prompt": {""}}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "missing_input", errBody["error"]["code"])
	require.Equal(t, "Upload a file first!", errBody["error"]["message"])
	require.Zero(t, env.endpoint.count())
}

func TestRouter_ReselectReplacesFile(t *testing.T) {
	env := newTestEnv(t, nil)

	require.Equal(t, http.StatusSeeOther, env.do(t, multipartRequest(t, "/form/file", "old.txt", []byte("old"), nil)).Code)
	require.Equal(t, http.StatusSeeOther, env.do(t, multipartRequest(t, "/form/file", "new.txt", []byte("new"), nil)).Code)
	require.Equal(t, http.StatusSeeOther, env.do(t, formRequest("/form/prompt", url.Values{"prompt": {"short"}})).Code)
	require.Equal(t, http.StatusSeeOther, env.do(t, formRequest("/form/submit", nil)).Code)

	parts := env.endpoint.lastParts()
	require.Equal(t, "new.txt", parts[0].filename)
	require.Equal(t, "new", parts[0].content)
	require.Equal(t, "short", parts[1].content)
	require.Equal(t, 1, env.endpoint.count())
}

func TestRouter_SelectFromObjectStorage(t *testing.T) {
	objects := filesource.NewMemory()
	objects.Put("reports/q3.txt", []byte("from storage"), "text/plain")
	env := newTestEnv(t, objects)

	require.Contains(t, env.do(t, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String(), "Or pick from storage")

	rec := env.do(t, formRequest("/form/submit", url.Values{"ref": {"reports/q3.txt"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	parts := env.endpoint.lastParts()
	require.Equal(t, "q3.txt", parts[0].filename)
	require.Equal(t, "from storage", parts[0].content)
}

func TestRouter_RejectsOversizedUpload(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, multipartRequest(t, "/api/v1/form/submit", "big.bin", bytes.Repeat([]byte("x"), 64), nil))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Nil(t, env.state(t).File)
	require.Zero(t, env.endpoint.count())
}

func TestRouter_SessionsAreSeparate(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, multipartRequest(t, "/form/submit", "a.txt", []byte("a"), nil))

	other := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(other, httptest.NewRequest(http.MethodGet, "/api/v1/form", nil))
	var view stateView
	require.NoError(t, json.Unmarshal(other.Body.Bytes(), &view))
	require.Nil(t, view.File)
	require.Empty(t, view.Summary)
}

func TestRouter_Health(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, formRequest("/form/submit", nil))

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status      string                   `json:"status"`
		Endpoint    string                   `json:"endpoint"`
		Sessions    int                      `json:"sessions"`
		Submissions metrics.SubmissionCounts `json:"submissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "ok", body.Endpoint)
	require.Equal(t, 1, body.Sessions)
	require.Equal(t, int64(1), body.Submissions.Rejected)
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/form/submit", nil)
	req.Header.Set("Origin", "http://localhost:3001")

	rec := env.do(t, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:3001", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestOriginPolicy(t *testing.T) {
	open := newOriginPolicy(nil)
	origin, ok := open.resolve("http://a.test")
	require.True(t, ok)
	require.Equal(t, "*", origin)

	listed := newOriginPolicy([]string{"http://a.test", "http://B.test"})
	origin, ok = listed.resolve("http://b.test")
	require.True(t, ok)
	require.Equal(t, "http://b.test", origin)

	_, ok = listed.resolve("http://evil.test")
	require.False(t, ok)
	_, ok = listed.resolve("")
	require.False(t, ok)
}

func TestRouter_CORSRejectsUnknownOrigin(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/form", nil)
	req.Header.Set("Origin", "http://evil.test")

	rec := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubmitThrottle(t *testing.T) {
	throttle := newSubmitThrottle(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 2})
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

	ok, _ := throttle.take("10.0.0.1", now)
	require.True(t, ok)
	ok, _ = throttle.take("10.0.0.1", now)
	require.True(t, ok)
	ok, wait := throttle.take("10.0.0.1", now)
	require.False(t, ok)
	require.Equal(t, time.Second, wait)

	ok, _ = throttle.take("10.0.0.2", now)
	require.True(t, ok)
	ok, _ = throttle.take("10.0.0.1", now.Add(time.Second))
	require.True(t, ok)
}

func TestRouter_ThrottlesSubmissions(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	env := newTestEnvWith(t, cfg, nil)

	first := env.do(t, formRequest("/api/v1/form/submit", nil))
	require.Equal(t, http.StatusBadRequest, first.Code)

	second := env.do(t, formRequest("/api/v1/form/submit", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "60", second.Header().Get("Retry-After"))
	require.Equal(t, "rate_limited", decodeErrorBody(t, second.Body.Bytes())["error"]["code"])

	// Editing the prompt is not throttled.
	require.Equal(t, http.StatusSeeOther, env.do(t, formRequest("/form/prompt", url.Values{"prompt": {"x"}})).Code)
}

func TestRouter_ThrottledSubmitKeepsPickedFile(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	env := newTestEnvWith(t, cfg, nil)

	require.Equal(t, http.StatusSeeOther, env.do(t, multipartRequest(t, "/form/submit", "a.txt", []byte("a"), nil)).Code)
	rec := env.do(t, multipartRequest(t, "/form/submit", "b.txt", []byte("b"), map[string]string{"prompt": "later"}))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, 1, env.endpoint.count())

	state := env.state(t)
	require.Equal(t, "b.txt", state.File.Name)
	require.Equal(t, "later", state.Prompt)
}

func TestRouter_DefaultConfigNeverRefusesSubmit(t *testing.T) {
	env := newTestEnvWith(t, config.Default(), nil)
	content := bytes.Repeat([]byte("x"), 4<<10)

	for i := 0; i < 11; i++ {
		rec := env.do(t, multipartRequest(t, "/form/submit", "notes.txt", content, map[string]string{"prompt": "X"}))
		require.Equal(t, http.StatusSeeOther, rec.Code, "submit %d", i+1)
	}
	require.Equal(t, 11, env.endpoint.count())
	state := env.state(t)
	require.Nil(t, state.Notice)
	require.Equal(t, "Hello", state.Summary)
}

func TestRouter_APIDismissNotice(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, formRequest("/api/v1/form/submit", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.state(t).Notice)

	dismissed := env.do(t, formRequest("/api/v1/form/notice/dismiss", nil))
	require.Equal(t, http.StatusOK, dismissed.Code)
	var view stateView
	require.NoError(t, json.Unmarshal(dismissed.Body.Bytes(), &view))
	require.Nil(t, view.Notice)

	page := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotContains(t, page.Body.String(), "Upload a file first!")
}

type testEnv struct {
	server   *http.Server
	endpoint *fakeEndpoint
	cookie   *http.Cookie
}

func newTestEnv(t *testing.T, objects filesource.Source) *testEnv {
	t.Helper()
	return newTestEnvWith(t, testConfig(), objects)
}

func newTestEnvWith(t *testing.T, cfg *config.Config, objects filesource.Source) *testEnv {
	t.Helper()
	endpoint := newFakeEndpoint(t)
	client := summarizeapi.NewClient(endpoint.srv.URL, nil)
	counter := metrics.NewSubmissionCounter()
	logger := newTestLogger()

	sessions := formsession.NewMemoryRegistry(formsession.Config{
		IdleTTL:     cfg.Session.IdleTTL,
		MaxSessions: cfg.Session.MaxSessions,
	}, func() *form.Form {
		return form.New(form.Config{Policy: cfg.StalePolicy()}, client, counter)
	}, logger)
	handler := NewHandler(HandlerConfig{
		MaxFileBytes: cfg.Form.MaxFileBytes,
		RateLimit:    cfg.HTTP.RateLimit,
	}, sessions, objects, client, counter, logger)
	return &testEnv{server: NewRouter(cfg, handler), endpoint: endpoint}
}

// testConfig keeps uploads tiny so size checks are cheap to exercise.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.HTTP.Address = ":0"
	cfg.HTTP.CORS = config.CORSConfig{AllowedOrigins: []string{"http://localhost:3001"}}
	cfg.Form.MaxFileBytes = 32
	return cfg
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "summarizer_session" {
			e.cookie = c
		}
	}
	return rec
}

func (e *testEnv) state(t *testing.T) stateView {
	t.Helper()
	rec := e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/form", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var view stateView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// multipartRequest builds a browser-like form post. An empty filename mimics a
// file input left untouched.
func multipartRequest(t *testing.T, path, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

type endpointPart struct {
	name     string
	filename string
	content  string
}

// fakeEndpoint stands in for the remote summarize service.
type fakeEndpoint struct {
	srv *httptest.Server

	mu     sync.Mutex
	status int
	body   string
	calls  [][]endpointPart
}

func newFakeEndpoint(t *testing.T) *fakeEndpoint {
	t.Helper()
	e := &fakeEndpoint{status: http.StatusOK, body: `{"summary":"Hello"}`}
	e.srv = httptest.NewServer(http.HandlerFunc(e.serve))
	t.Cleanup(e.srv.Close)
	return e
}

func (e *fakeEndpoint) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" {
		_, _ = io.WriteString(w, `{"status":"ok"}`)
		return
	}
	var parts []endpointPart
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil {
		reader := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := reader.NextPart()
			if errors.Is(err, io.EOF) || err != nil {
				break
			}
			data, _ := io.ReadAll(part)
			parts = append(parts, endpointPart{name: part.FormName(), filename: part.FileName(), content: string(data)})
		}
	}

	e.mu.Lock()
	e.calls = append(e.calls, parts)
	status, body := e.status, e.body
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (e *fakeEndpoint) respond(status int, body string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status, e.body = status, body
}

func (e *fakeEndpoint) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func (e *fakeEndpoint) lastParts() []endpointPart {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return nil
	}
	return e.calls[len(e.calls)-1]
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
