package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/explorer/internal/config"
	"github.com/JonMunkholm/explorer/internal/logging"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func TestAPIKeyAuth(t *testing.T) {
	cfg := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alpha", "beta"}}

	tests := []struct {
		name     string
		cfg      *config.SecurityConfig
		header   string
		value    string
		wantCode int
		wantBody string
	}{
		{"disabled passes", &config.SecurityConfig{}, "", "", http.StatusNoContent, ""},
		{"missing key", cfg, "", "", http.StatusUnauthorized, "AUTH001"},
		{"wrong key", cfg, "X-API-Key", "gamma", http.StatusForbidden, "AUTH002"},
		{"valid header", cfg, "X-API-Key", "beta", http.StatusNoContent, ""},
		{"valid bearer", cfg, "Authorization", "Bearer alpha", http.StatusNoContent, ""},
		{"no keys configured", &config.SecurityConfig{RequireAPIKey: true}, "X-API-Key", "alpha", http.StatusForbidden, "AUTH002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/demos", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(tt.cfg)(http.HandlerFunc(ok)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	got := ParseTrustedProxies([]string{"10.1.2.3/8", " 192.168.1.1 ", "", "not-an-ip", "::1"})
	require.Len(t, got, 3)
	assert.Equal(t, "10.0.0.0/8", got[0].String())
	assert.Equal(t, "192.168.1.1/32", got[1].String())
	assert.Equal(t, "::1/128", got[2].String())
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"no proxies ignores headers", nil, "203.0.113.9:4000", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.9:4000"},
		{"untrusted peer ignored", []string{"10.0.0.0/8"}, "203.0.113.9:4000", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.9:4000"},
		{"trusted uses X-Real-IP", []string{"10.0.0.0/8"}, "10.0.0.5:4000", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted uses first forwarded hop", []string{"10.0.0.5"}, "10.0.0.5:4000", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.5"}, "5.6.7.8"},
		{"garbage header kept out", []string{"10.0.0.0/8"}, "10.0.0.5:4000", map[string]string{"X-Real-IP": "nope"}, "10.0.0.5:4000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			var seen string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.RemoteAddr
			}))
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestLogger_RecordsStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "debug", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK) // ignored
		_, _ = w.Write([]byte("hello"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "bytes=5")
	assert.Contains(t, out, "path=/teapot")
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, levelFor(http.StatusOK))
	assert.Equal(t, slog.LevelInfo, levelFor(http.StatusFound))
	assert.Equal(t, slog.LevelWarn, levelFor(http.StatusNotFound))
	assert.Equal(t, slog.LevelError, levelFor(http.StatusBadGateway))
}
