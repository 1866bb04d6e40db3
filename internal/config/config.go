package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/consilium/popcorn/internal/errors"
	"github.com/consilium/popcorn/pkg/preference"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "popcorn.json"

	// DefaultAddr is the default HTTP listen address.
	DefaultAddr = ":3000"

	// DefaultPublic is the default static file directory.
	DefaultPublic = "public"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "popcorn"

	// DefaultTracerName is the default tracer name.
	DefaultTracerName = "popcorn/store"
)

// Config represents popcorn.json.
type Config struct {
	Server  ServerConfig  `json:"server,omitempty"`
	Log     LogConfig     `json:"log,omitempty"`
	Store   StoreConfig   `json:"store,omitempty"`
	Metrics MetricsConfig `json:"metrics,omitempty"`
	Tracing TracingConfig `json:"tracing,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// Public is the directory served at "/".
	Public string `json:"public,omitempty"`

	// APIBaseURL is where thunks send session and preference requests.
	APIBaseURL string `json:"apiBaseURL,omitempty"`
}

// LogConfig contains process logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// StoreConfig contains store settings.
type StoreConfig struct {
	// MergeStrategy resolves local/server preference conflicts
	// (lww, db-wins, local-wins, union).
	MergeStrategy string `json:"mergeStrategy,omitempty"`

	// Logger configures the action logging middleware.
	Logger ActionLogConfig `json:"logger,omitempty"`
}

// ActionLogConfig configures the action logging middleware.
type ActionLogConfig struct {
	// Enabled is kept for config compatibility; the logging stage is always
	// installed, and a disabled logger only filters every action out.
	Enabled *bool `json:"enabled,omitempty"`

	// Diff logs changed slice names instead of full state.
	Diff bool `json:"diff,omitempty"`

	// Level is the level of action records.
	Level string `json:"level,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty"`
	TracerName string `json:"tracerName,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	enabled := true
	return &Config{
		Server: ServerConfig{
			Addr:   DefaultAddr,
			Public: DefaultPublic,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			MergeStrategy: preference.LWW.String(),
			Logger: ActionLogConfig{
				Enabled: &enabled,
				Level:   "debug",
			},
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
	}
}

// Load loads configuration from popcorn.json in the given directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E122").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use defaults")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOptional loads popcorn.json from dir, falling back to defaults when the
// file does not exist.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.HasCode(err, "E122") {
		return New(), nil
	}
	return cfg, err
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills fields an explicit empty value cleared.
func (c *Config) applyDefaults() {
	def := New()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.Public == "" {
		c.Server.Public = def.Server.Public
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Store.MergeStrategy == "" {
		c.Store.MergeStrategy = def.Store.MergeStrategy
	}
	if c.Store.Logger.Enabled == nil {
		c.Store.Logger.Enabled = def.Store.Logger.Enabled
	}
	if c.Store.Logger.Level == "" {
		c.Store.Logger.Level = def.Store.Logger.Level
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = def.Metrics.Namespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = def.Tracing.TracerName
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		return errors.New("E121").
			WithDetailf("server.addr %q: %v", c.Server.Addr, err).
			WithSuggestion(`Use host:port, e.g. ":3000"`)
	}
	if _, ok := ParseLevel(c.Log.Level); !ok {
		return errors.New("E121").WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if _, ok := ParseLevel(c.Store.Logger.Level); !ok {
		return errors.New("E121").WithDetailf("store.logger.level %q is not one of debug, info, warn, error", c.Store.Logger.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E121").WithDetailf("log.format %q is not text or json", c.Log.Format)
	}
	if _, ok := preference.ParseMergeStrategy(c.Store.MergeStrategy); !ok {
		return errors.New("E121").
			WithDetailf("store.mergeStrategy %q is unknown", c.Store.MergeStrategy).
			WithSuggestion("Use one of lww, db-wins, local-wins, union")
	}
	return nil
}

// ActionLogEnabled reports whether actions are logged.
func (c *Config) ActionLogEnabled() bool {
	return c.Store.Logger.Enabled == nil || *c.Store.Logger.Enabled
}

// MergeStrategy returns the parsed preference merge strategy.
func (c *Config) MergeStrategy() preference.MergeStrategy {
	m, _ := preference.ParseMergeStrategy(c.Store.MergeStrategy)
	return m
}

// ParseLevel parses a level name.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
