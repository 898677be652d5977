// Package config provides configuration file support for hostdash.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hostdash/hostdash/pkg/fsutil"
)

// Config represents the hostdash configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Browser   BrowserConfig   `yaml:"browser"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Audit     AuditConfig     `yaml:"audit"`
	Webhooks  []WebhookConfig `yaml:"webhooks,omitempty"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string `yaml:"addr"`
	MaxUploadBytes    int64  `yaml:"max_upload_bytes"`
	ReadHeaderTimeout string `yaml:"read_header_timeout"`
	ShutdownTimeout   string `yaml:"shutdown_timeout"`
}

// BrowserConfig configures the confined file browser.
type BrowserConfig struct {
	Root string `yaml:"root"`
}

// RecorderConfig configures the input event recorder.
type RecorderConfig struct {
	Capacity      int    `yaml:"capacity"`
	SnapshotLimit int    `yaml:"snapshot_limit"`
	Source        string `yaml:"source"` // terminal, none
}

// TelemetryConfig configures status collection.
type TelemetryConfig struct {
	PingTarget  string `yaml:"ping_target"`
	PingTimeout string `yaml:"ping_timeout"`
}

// AuditConfig configures the audit trail. An empty path disables it.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// WebhookConfig configures one outbound notification target.
type WebhookConfig struct {
	URL     string   `yaml:"url"`
	Secret  string   `yaml:"secret,omitempty"`
	Events  []string `yaml:"events,omitempty"`
	Timeout string   `yaml:"timeout,omitempty"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

// Default returns the default configuration.
func Default() *Config {
	root, err := os.UserHomeDir()
	if err != nil {
		root = "."
	}
	return &Config{
		Server: ServerConfig{
			Addr:              "127.0.0.1:8765",
			MaxUploadBytes:    512 << 20,
			ReadHeaderTimeout: "10s",
			ShutdownTimeout:   "5s",
		},
		Browser: BrowserConfig{Root: root},
		Recorder: RecorderConfig{
			Capacity:      10000,
			SnapshotLimit: 1000,
			Source:        "terminal",
		},
		Telemetry: TelemetryConfig{
			PingTarget:  "8.8.8.8:53",
			PingTimeout: "2s",
		},
		Audit: AuditConfig{Path: defaultAuditPath()},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the config file location used when --config is not set.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "hostdash.yaml"
	}
	return filepath.Join(dir, "hostdash", "config.yaml")
}

func defaultAuditPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hostdash", "audit.jsonl")
}

// Load loads configuration from path.
// Returns default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to path.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := fsutil.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if c.Recorder.Capacity <= 0 {
		return fmt.Errorf("recorder.capacity must be positive")
	}
	if c.Recorder.SnapshotLimit <= 0 {
		return fmt.Errorf("recorder.snapshot_limit must be positive")
	}
	switch c.Recorder.Source {
	case "terminal", "none":
	default:
		return fmt.Errorf("recorder.source must be terminal or none, got %q", c.Recorder.Source)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	for _, d := range []struct{ key, val string }{
		{"server.read_header_timeout", c.Server.ReadHeaderTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"telemetry.ping_timeout", c.Telemetry.PingTimeout},
	} {
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}
	for i, h := range c.Webhooks {
		if h.URL == "" {
			return fmt.Errorf("webhooks[%d].url must not be empty", i)
		}
		if h.Timeout != "" {
			if _, err := time.ParseDuration(h.Timeout); err != nil {
				return fmt.Errorf("webhooks[%d].timeout: %w", i, err)
			}
		}
	}
	return nil
}

// Duration parses a duration field already checked by Validate, falling
// back to def for empty or malformed values.
func Duration(val string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

var fields = map[string]field{
	"server.addr": {
		get: func(c *Config) string { return c.Server.Addr },
		set: func(c *Config, v string) error { c.Server.Addr = v; return nil },
	},
	"server.max_upload_bytes": {
		get: func(c *Config) string { return strconv.FormatInt(c.Server.MaxUploadBytes, 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("server.max_upload_bytes: %w", err)
			}
			c.Server.MaxUploadBytes = n
			return nil
		},
	},
	"browser.root": {
		get: func(c *Config) string { return c.Browser.Root },
		set: func(c *Config, v string) error { c.Browser.Root = v; return nil },
	},
	"recorder.capacity": {
		get: func(c *Config) string { return strconv.Itoa(c.Recorder.Capacity) },
		set: func(c *Config, v string) error { return setInt(&c.Recorder.Capacity, "recorder.capacity", v) },
	},
	"recorder.snapshot_limit": {
		get: func(c *Config) string { return strconv.Itoa(c.Recorder.SnapshotLimit) },
		set: func(c *Config, v string) error {
			return setInt(&c.Recorder.SnapshotLimit, "recorder.snapshot_limit", v)
		},
	},
	"recorder.source": {
		get: func(c *Config) string { return c.Recorder.Source },
		set: func(c *Config, v string) error { c.Recorder.Source = v; return nil },
	},
	"telemetry.ping_target": {
		get: func(c *Config) string { return c.Telemetry.PingTarget },
		set: func(c *Config, v string) error { c.Telemetry.PingTarget = v; return nil },
	},
	"audit.path": {
		get: func(c *Config) string { return c.Audit.Path },
		set: func(c *Config, v string) error { c.Audit.Path = v; return nil },
	},
	"logging.level": {
		get: func(c *Config) string { return c.Logging.Level },
		set: func(c *Config, v string) error { c.Logging.Level = strings.ToLower(v); return nil },
	},
	"logging.format": {
		get: func(c *Config) string { return c.Logging.Format },
		set: func(c *Config, v string) error { c.Logging.Format = strings.ToLower(v); return nil },
	},
}

func setInt(dst *int, key, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// Get returns the string form of a dotted configuration key.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return f.get(c), nil
}

// Set assigns a dotted configuration key and validates the result.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	if err := f.set(c, value); err != nil {
		return err
	}
	return c.Validate()
}

// Keys returns the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
