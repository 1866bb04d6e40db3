package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/consilium/popcorn/pkg/middleware"
	"github.com/consilium/popcorn/pkg/preference"
	"github.com/consilium/popcorn/pkg/sessions"
)

// Config holds server settings.
type Config struct {
	// Addr is the listen address. Default: ":3000".
	Addr string

	// Public is the static file directory. Empty disables static files.
	Public string

	// Title is the shell page title. Default: "Popcorn".
	Title string

	// ReadHeaderTimeout bounds reading request headers. Default: 10 seconds.
	ReadHeaderTimeout time.Duration

	// WriteTimeout bounds a WebSocket write. Default: 10 seconds.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Default: 30 seconds.
	ShutdownTimeout time.Duration

	// MaxActionBytes limits a POSTed action body. Default: 64KB.
	MaxActionBytes int64

	// Gatherer backs /metrics. Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// ActionTypes lists the action types POST /api/actions accepts.
	// Default: the userPreference actions. Session actions only change
	// through the session thunks.
	ActionTypes []string

	// Metrics, when set, receives the WebSocket subscriber count.
	Metrics *middleware.Metrics

	// CurrentUser picks the user handed off to the shell page. Default: the
	// store's current user.
	CurrentUser func(r *http.Request) *sessions.User

	// Logger defaults to slog.Default() with component=server.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              ":3000",
		Title:             "Popcorn",
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		MaxActionBytes:    64 * 1024,
		Gatherer:          prometheus.DefaultGatherer,
		ActionTypes:       preference.ActionTypes(),
	}
}

// Option configures a Server.
type Option func(*Config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *Config) {
		c.Addr = addr
	}
}

// WithPublic sets the static file directory.
func WithPublic(dir string) Option {
	return func(c *Config) {
		c.Public = dir
	}
}

// WithGatherer sets the gatherer behind /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(c *Config) {
		c.Gatherer = g
	}
}

// WithActionTypes replaces the action types POST /api/actions accepts.
func WithActionTypes(types ...string) Option {
	return func(c *Config) {
		c.ActionTypes = types
	}
}

// WithMetrics reports subscriber counts to m.
func WithMetrics(m *middleware.Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithCurrentUser sets how the shell page finds the user to hand off.
func WithCurrentUser(fn func(r *http.Request) *sessions.User) Option {
	return func(c *Config) {
		c.CurrentUser = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
