package config

import (
	"strings"
	"testing"
	"time"
)

// env returns a Lookup over a fixed set of variables.
func env(vars map[string]string) Lookup {
	return func(key string) string { return vars[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(env(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upload.MaxConcurrent != 4 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 4)
	}
	if cfg.Upload.MaxFileSize != 52428800 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 52428800)
	}
	if cfg.Rate.RequestsPerMinute != 120 {
		t.Errorf("Rate.RequestsPerMinute = %d, want %d", cfg.Rate.RequestsPerMinute, 120)
	}
	if cfg.Explore.PreviewRows != 200 || cfg.Explore.DefaultColumns != 5 {
		t.Errorf("Explore = %+v, want 200 preview rows and 5 columns", cfg.Explore)
	}
	if cfg.Events.File != "app.log" {
		t.Errorf("Events.File = %q, want %q", cfg.Events.File, "app.log")
	}
	if cfg.Database.Enabled() {
		t.Error("Database.Enabled() = true with no URL")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	t.Setenv("SERVER_PORT", "9191")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9191)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"SERVER_PORT":           "9090",
		"UPLOAD_MAX_CONCURRENT": "10",
		"LOG_LEVEL":             "debug",
		"EXPLORE_DEFAULT_BINS":  "50",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upload.MaxConcurrent != 10 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 10)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Explore.DefaultBins != 50 {
		t.Errorf("Explore.DefaultBins = %d, want %d", cfg.Explore.DefaultBins, 50)
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{"DB_URL": "postgres://localhost/alttest"}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Database.URL != "postgres://localhost/alttest" {
		t.Errorf("Database.URL = %q, want %q", cfg.Database.URL, "postgres://localhost/alttest")
	}
	if !cfg.Database.Enabled() {
		t.Error("Database.Enabled() = false with a URL")
	}
}

func TestLoad_Duration(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"UPLOAD_MAX_WAIT_TIME": "2m30s",
		"EVENT_PURGE_INTERVAL": "6h",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Upload.MaxWaitTime != 150*time.Second {
		t.Errorf("Upload.MaxWaitTime = %v, want %v", cfg.Upload.MaxWaitTime, 150*time.Second)
	}
	if cfg.Events.PurgeInterval != 6*time.Hour {
		t.Errorf("Events.PurgeInterval = %v, want %v", cfg.Events.PurgeInterval, 6*time.Hour)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"TRUSTED_PROXIES": " 10.0.0.0/8, ,192.168.1.1 ",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	want := []string{"10.0.0.0/8", "192.168.1.1"}
	if len(cfg.Security.TrustedProxies) != len(want) {
		t.Fatalf("TrustedProxies = %v, want %v", cfg.Security.TrustedProxies, want)
	}
	for i := range want {
		if cfg.Security.TrustedProxies[i] != want[i] {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], want[i])
		}
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"bad int", map[string]string{"SERVER_PORT": "eighty"}, "SERVER_PORT"},
		{"bad duration", map[string]string{"UPLOAD_MAX_WAIT_TIME": "soon"}, "UPLOAD_MAX_WAIT_TIME"},
		{"bad bool", map[string]string{"RATE_LIMIT_ENABLED": "maybe"}, "RATE_LIMIT_ENABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(env(tt.vars))
			if err == nil {
				t.Fatal("LoadFrom() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not name %s", err, tt.want)
			}
		})
	}
}

func TestLoad_ReportsEveryInvalidValue(t *testing.T) {
	_, err := LoadFrom(env(map[string]string{
		"SERVER_PORT":        "eighty",
		"RATE_LIMIT_ENABLED": "maybe",
	}))
	if err == nil {
		t.Fatal("LoadFrom() error = nil, want error")
	}
	for _, want := range []string{"SERVER_PORT", "RATE_LIMIT_ENABLED"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not name %s", err, want)
		}
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(" , ,"); len(got) != 0 {
		t.Errorf("splitList(blank) = %v, want empty", got)
	}
	if got := splitList("a, b"); len(got) != 2 || got[1] != "b" {
		t.Errorf("splitList(a, b) = %v", got)
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadFrom(env(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(c *Config)
		want string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "SERVER_PORT"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "SERVER_PORT"},
		{"min conns above max", func(c *Config) { c.Database.MinConns = 10 }, "DB_MIN_CONNS"},
		{"no file size", func(c *Config) { c.Upload.MaxFileSize = 0 }, "UPLOAD_MAX_FILE_SIZE"},
		{"no load cache", func(c *Config) { c.Cache.LoadEntries = 0 }, "CACHE_LOAD_ENTRIES"},
		{"max below preview", func(c *Config) { c.Explore.MaxPreviewRows = 10 }, "EXPLORE_MAX_PREVIEW_ROWS"},
		{"too few bins", func(c *Config) { c.Explore.DefaultBins = 4 }, "EXPLORE_DEFAULT_BINS"},
		{"too many bins", func(c *Config) { c.Explore.DefaultBins = 201 }, "EXPLORE_DEFAULT_BINS"},
		{"no retention", func(c *Config) { c.Events.RetentionDays = 0 }, "EVENT_RETENTION_DAYS"},
		{"rate limit zero", func(c *Config) { c.Rate.RequestsPerMinute = 0 }, "RATE_LIMIT_REQUESTS_PER_MINUTE"},
		{"auth without keys", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mod(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %q, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Server.Port = 0
	cfg.Logging.Level = "trace"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want error")
	}
	for _, want := range []string{"SERVER_PORT", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() = %q, missing %s", err, want)
		}
	}
}

func TestValidate_RateLimitDisabled(t *testing.T) {
	cfg := validConfig(t)
	cfg.Rate.Enabled = false
	cfg.Rate.RequestsPerMinute = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil with rate limiting disabled", err)
	}
}

func TestString_MasksDatabaseURL(t *testing.T) {
	cfg := validConfig(t)
	cfg.Database.URL = "postgres://user:secret@db/events"

	s := cfg.String()
	if strings.Contains(s, "secret") {
		t.Errorf("String() leaks the database URL: %s", s)
	}
	if !strings.Contains(s, "[MASKED]") {
		t.Errorf("String() = %s, want [MASKED]", s)
	}
}

func TestServerAddr(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := c.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:8080")
	}
}
