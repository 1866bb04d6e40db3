package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/consilium/popcorn/internal/config"
	"github.com/consilium/popcorn/internal/errors"
	"github.com/consilium/popcorn/pkg/api"
	"github.com/consilium/popcorn/pkg/bootstrap"
	"github.com/consilium/popcorn/pkg/middleware"
	"github.com/consilium/popcorn/pkg/preference"
	"github.com/consilium/popcorn/pkg/sessions"
	"github.com/consilium/popcorn/pkg/store"
)

// loadConfig reads popcorn.json from flags.dir, applying flag overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadOptional(flags.dir)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, errors.New("E180").WithDetail("--log-level " + flags.logLevel).Wrap(err)
		}
	}
	return cfg, nil
}

// newLogger builds the process logger and installs it as the default.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, _ := config.ParseLevel(cfg.Log.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// app bundles what a command needs after setup.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	client  *api.Client
	metrics *middleware.Metrics
}

// storeOptions maps the configuration onto bootstrap options.
func storeOptions(cfg *config.Config, logger *slog.Logger, registry prometheus.Registerer) ([]bootstrap.Option, *api.Client, *middleware.Metrics) {
	actionLevel, _ := config.ParseLevel(cfg.Store.Logger.Level)
	loggerOpts := []middleware.LoggerOption{
		middleware.WithLevel(actionLevel),
		middleware.WithDiff(cfg.Store.Logger.Diff),
	}
	if !cfg.ActionLogEnabled() {
		loggerOpts = append(loggerOpts, middleware.WithPredicate(func(store.Action) bool { return false }))
	}

	opts := []bootstrap.Option{
		bootstrap.WithLogger(logger.With("component", "store")),
		bootstrap.WithLoggerOptions(loggerOpts...),
		bootstrap.WithReducers(store.Reducers{
			preference.SliceName: preference.NewReducer(preference.MergeWith(cfg.MergeStrategy())),
		}),
	}

	var client *api.Client
	if cfg.Server.APIBaseURL != "" {
		client = api.New(cfg.Server.APIBaseURL, api.WithLogger(logger.With("component", "api")))
	}

	var metrics *middleware.Metrics
	if cfg.Metrics.Enabled {
		var mw store.Middleware
		metrics, mw = middleware.PrometheusWithMetrics(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(registry),
			middleware.WithKnownActionTypes(bootstrap.ActionTypes()...),
		)
		opts = append(opts, bootstrap.WithMiddleware(mw))
	}
	if cfg.Tracing.Enabled {
		opts = append(opts, bootstrap.WithMiddleware(middleware.OpenTelemetry(
			middleware.WithTracerName(cfg.Tracing.TracerName),
			middleware.WithTracerProvider(otel.GetTracerProvider()),
			middleware.WithSpanActionTypes(bootstrap.ActionTypes()...),
		)))
	}
	return opts, client, metrics
}

// newApp loads configuration and bootstraps the store. A non-nil seed
// bypasses the handoff slot.
func newApp(flags *globalFlags, logOut io.Writer, registry prometheus.Registerer, extra ...bootstrap.Option) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, logOut)

	opts, client, metrics := storeOptions(cfg, logger, registry)
	s, err := bootstrap.InitializeStore(append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, store: s, client: client, metrics: metrics}, nil
}

// parseUser parses a --current-user value.
func parseUser(raw string) (*sessions.User, error) {
	var u *sessions.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, errors.New("E180").
			WithDetail("--current-user is not a JSON user").
			WithSuggestion(`Pass e.g. --current-user '{"id":42,"name":"Ada"}'`).
			Wrap(err)
	}
	return u, nil
}

// parseActions parses --action values. Each value is one JSON action or a
// JSON list of actions.
func parseActions(raws []string) ([]store.Action, error) {
	var actions []store.Action
	for _, raw := range raws {
		raw = strings.TrimSpace(raw)
		if strings.HasPrefix(raw, "[") {
			var list []store.Action
			if err := json.Unmarshal([]byte(raw), &list); err != nil {
				return nil, actionFlagError(raw, err)
			}
			actions = append(actions, list...)
			continue
		}
		var a store.Action
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, actionFlagError(raw, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func actionFlagError(raw string, err error) error {
	return errors.New("E180").
		WithDetailf("--action %s", raw).
		WithSuggestion(`Pass e.g. --action '{"type":"RECEIVE_MOVIE_RATING","payload":{"movie_id":1,"rating":4}}'`).
		Wrap(err)
}
