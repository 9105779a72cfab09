package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Lookup returns the value of an environment variable, or "" when unset.
type Lookup func(key string) string

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with an explicit variable source.
func LoadFrom(lookup Lookup) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// envField is one tagged leaf of the Config tree.
type envField struct {
	value    reflect.Value
	name     string
	alt      string
	fallback string
	required bool
}

// resolve returns the field's raw value: primary variable, then alternate,
// then the default tag.
func (f envField) resolve(lookup Lookup) (string, error) {
	for _, key := range []string{f.name, f.alt} {
		if key == "" {
			continue
		}
		if v := lookup(key); v != "" {
			return v, nil
		}
	}
	if f.required {
		return "", fmt.Errorf("required environment variable %s is not set", f.name)
	}
	return f.fallback, nil
}

// collectFields flattens nested config structs into their env-tagged leaves.
func collectFields(v reflect.Value) []envField {
	var out []envField
	t := v.Type()
	for i := range t.NumField() {
		sf, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			out = append(out, collectFields(fv)...)
			continue
		}
		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		out = append(out, envField{
			value:    fv,
			name:     name,
			alt:      sf.Tag.Get("envAlt"),
			fallback: sf.Tag.Get("default"),
			required: sf.Tag.Get("required") == "true",
		})
	}
	return out
}

// loadStruct populates every tagged field and reports all failures at once.
func loadStruct(v reflect.Value, lookup Lookup) error {
	var errs []error
	for _, f := range collectFields(v) {
		raw, err := f.resolve(lookup)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if raw == "" {
			continue
		}
		if err := decode(f.value, raw); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s=%q: %w", f.name, raw, err))
		}
	}
	return errors.Join(errs...)
}

var durationType = reflect.TypeOf(time.Duration(0))

// decode parses raw into dst according to dst's type.
func decode(dst reflect.Value, raw string) error {
	if dst.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		dst.SetInt(int64(d))
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		dst.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		dst.SetInt(n)
	case reflect.Float64:
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %w", err)
		}
		dst.SetFloat(x)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		dst.SetBool(b)
	case reflect.Slice:
		if dst.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", dst.Type().Elem().Kind())
		}
		dst.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type: %s", dst.Kind())
	}
	return nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// rule is one validation check; msg is reported when ok is false.
type rule struct {
	ok  bool
	msg string
}

// Validate checks every setting and reports all failures together.
func (c *Config) Validate() error {
	level := strings.ToLower(c.Logging.Level)
	format := strings.ToLower(c.Logging.Format)

	rules := []rule{
		{c.Database.MaxConns > 0, "DB_MAX_CONNS must be positive"},
		{c.Database.MinConns >= 0, "DB_MIN_CONNS must be non-negative"},
		{c.Database.MaxConns >= c.Database.MinConns, fmt.Sprintf(
			"DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.Database.MaxConns, c.Database.MinConns)},

		{c.Server.Port > 0 && c.Server.Port <= 65535, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port)},
		{c.Server.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative"},
		{c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive"},

		{c.Upload.MaxFileSize > 0, "UPLOAD_MAX_FILE_SIZE must be positive"},
		{c.Upload.MaxConcurrent > 0, "UPLOAD_MAX_CONCURRENT must be positive"},
		{c.Upload.MaxWaitTime > 0, "UPLOAD_MAX_WAIT_TIME must be positive"},

		{c.Cache.LoadEntries > 0, "CACHE_LOAD_ENTRIES must be positive"},
		{c.Cache.ExportEntries > 0, "CACHE_EXPORT_ENTRIES must be positive"},

		{c.Explore.DefaultColumns >= 0, "EXPLORE_DEFAULT_COLUMNS must be non-negative"},
		{c.Explore.DefaultFilterValues >= 0, "EXPLORE_DEFAULT_FILTER_VALUES must be non-negative"},
		{c.Explore.PreviewRows > 0, "EXPLORE_PREVIEW_ROWS must be positive"},
		{c.Explore.MaxPreviewRows >= c.Explore.PreviewRows, fmt.Sprintf(
			"EXPLORE_MAX_PREVIEW_ROWS (%d) must be >= EXPLORE_PREVIEW_ROWS (%d)", c.Explore.MaxPreviewRows, c.Explore.PreviewRows)},
		{c.Explore.DefaultBins >= 5 && c.Explore.DefaultBins <= 200, fmt.Sprintf(
			"EXPLORE_DEFAULT_BINS (%d) must be 5-200", c.Explore.DefaultBins)},

		{!c.Rate.Enabled || c.Rate.RequestsPerMinute > 0,
			"RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled"},

		{c.Events.RetentionDays > 0, "EVENT_RETENTION_DAYS must be positive"},
		{c.Events.PurgeInterval > 0, "EVENT_PURGE_INTERVAL must be positive"},

		{!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
			"REQUIRE_API_KEY is true but API_KEYS is empty"},

		{slices.Contains([]string{"debug", "info", "warn", "error"}, level), fmt.Sprintf(
			"LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)},
		{format == "text" || format == "json", fmt.Sprintf(
			"LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)},
	}

	var failed []string
	for _, r := range rules {
		if !r.ok {
			failed = append(failed, r.msg)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(failed, "\n  - "))
	}
	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	db := "[NONE]"
	if c.Database.Enabled() {
		db = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {URL: %s, MaxConns: %d, MinConns: %d}, ",
		db, c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Upload: {MaxFileSize: %d, MaxConcurrent: %d}, ",
		c.Upload.MaxFileSize, c.Upload.MaxConcurrent))
	b.WriteString(fmt.Sprintf("Cache: {LoadEntries: %d, ExportEntries: %d}, ",
		c.Cache.LoadEntries, c.Cache.ExportEntries))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Events: {File: %q, RetentionDays: %d}, ",
		c.Events.File, c.Events.RetentionDays))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
