package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/explorer/internal/config"
	"github.com/JonMunkholm/explorer/internal/core"
)

// newTestServer builds a server over the bundled demos with default
// configuration and rate limiting off.
func newTestServer(t *testing.T, mod func(*config.Config), opts ...Option) *Server {
	t.Helper()

	cfg, err := config.LoadFrom(func(string) string { return "" })
	require.NoError(t, err)
	cfg.Rate.Enabled = false
	if mod != nil {
		mod(cfg)
	}

	svc, err := core.NewService(core.Options{}, nil)
	require.NoError(t, err)

	s := NewServer(svc, cfg, opts...)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, s, httptest.NewRequest(http.MethodGet, target, nil))
}

func postJSON(t *testing.T, s *Server, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return do(t, s, req)
}

// multipartRequest builds a POST carrying fields and, when name is set, a file.
func multipartRequest(t *testing.T, target string, fields map[string]string, name, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if name != "" {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.ElementsMatch(t, []any{"employes", "vgsales"}, body["demos"])
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/health")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

func TestStaticStylesheet(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/static/app.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".alert-warning")
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"k1"}
	})

	rec := get(t, s, "/api/demos")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/demos", nil)
	req.Header.Set("X-API-Key", "k1")
	assert.Equal(t, http.StatusOK, do(t, s, req).Code)

	// Pages stay open.
	assert.Equal(t, http.StatusOK, get(t, s, "/").Code)
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	assert.True(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("2.2.2.2"), "budgets are per address")

	rl.stop()
	assert.True(t, rl.allow("1.1.1.1"), "stop forgets spent budgets")
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := newRateLimiter(1, 20*time.Millisecond)
	defer rl.stop()

	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.allow("1.1.1.1"))
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.RequestsPerMinute = 1
	})

	assert.Equal(t, http.StatusOK, get(t, s, "/health").Code)

	rec := get(t, s, "/api/demos")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decode[ErrorResponse](t, rec).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNoData, http.StatusUnprocessableEntity},
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{core.ErrDatasetNotFound, http.StatusNotFound},
		{core.ErrUnknownDemo, http.StatusNotFound},
		{core.ErrTooManyParses, http.StatusServiceUnavailable},
		{core.ErrInvalidBins, http.StatusBadRequest},
		{core.ErrInvalidRange, http.StatusBadRequest},
		{errNoFile, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "statusFor(%v)", tt.err)
	}
}

func TestErrorResponseFormats(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("htmx gets a fragment", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/datasets/missing/view", nil)
		req.Header.Set("HX-Request", "true")
		rec := do(t, s, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
		assert.Contains(t, rec.Body.String(), "DS001")
	})

	t.Run("api defaults to json", func(t *testing.T) {
		rec := get(t, s, "/api/datasets/missing/view")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "DS001", decode[ErrorResponse](t, rec).Code)
	})
}
