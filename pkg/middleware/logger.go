package middleware

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/consilium/popcorn/pkg/store"
)

// LoggerConfig configures the logging middleware.
type LoggerConfig struct {
	// Logger receives the records (default: slog.Default() with
	// component=store.logger).
	Logger *slog.Logger

	// Level is the level of successful dispatch records (default: Info).
	// Failed dispatches are always logged at Error.
	Level slog.Level

	// Predicate decides which actions are logged. Nil logs every action.
	Predicate func(action store.Action) bool

	// Diff logs only the names of the slices that changed instead of the
	// full previous and next state.
	Diff bool

	// Duration adds the time spent in the rest of the chain.
	Duration bool
}

// LoggerOption configures the logging middleware.
type LoggerOption func(*LoggerConfig)

// WithLogLogger sets the destination logger.
func WithLogLogger(logger *slog.Logger) LoggerOption {
	return func(c *LoggerConfig) {
		c.Logger = logger
	}
}

// WithLevel sets the level for successful dispatches.
func WithLevel(level slog.Level) LoggerOption {
	return func(c *LoggerConfig) {
		c.Level = level
	}
}

// WithPredicate restricts logging to actions for which fn returns true.
func WithPredicate(fn func(action store.Action) bool) LoggerOption {
	return func(c *LoggerConfig) {
		c.Predicate = fn
	}
}

// WithDiff switches to logging changed slice names only.
func WithDiff(diff bool) LoggerOption {
	return func(c *LoggerConfig) {
		c.Diff = diff
	}
}

// WithDuration enables the duration attribute.
func WithDuration(enabled bool) LoggerOption {
	return func(c *LoggerConfig) {
		c.Duration = enabled
	}
}

func defaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:    slog.LevelInfo,
		Duration: true,
	}
}

// Logger creates middleware that records every plain action together with
// the state before and after it. Values that are not actions (thunks) pass
// through without a record; the actions they dispatch are logged when they
// reach this middleware.
func Logger(opts ...LoggerOption) store.Middleware {
	config := defaultLoggerConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default().With("component", "store.logger")
	}
	log := config.Logger

	return func(api store.API) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(ctx context.Context, v any) (any, error) {
				action, ok := plainAction(v)
				if !ok || (config.Predicate != nil && !config.Predicate(action)) {
					return next(ctx, v)
				}

				id := uuid.NewString()
				prev := api.GetState()
				start := time.Now()

				result, err := next(ctx, v)

				attrs := []slog.Attr{
					slog.String("dispatch_id", id),
					slog.String("action", action.Type),
				}
				if action.Payload != nil {
					attrs = append(attrs, slog.Any("payload", action.Payload))
				}
				if config.Duration {
					attrs = append(attrs, slog.Duration("duration", time.Since(start)))
				}

				if err != nil {
					attrs = append(attrs, slog.Any("error", err))
					log.LogAttrs(ctx, slog.LevelError, "action failed", attrs...)
					return result, err
				}

				nextState := api.GetState()
				if config.Diff {
					attrs = append(attrs, slog.Any("changed", ChangedSlices(prev, nextState)))
				} else {
					attrs = append(attrs,
						slog.Any("prev_state", map[string]any(prev)),
						slog.Any("next_state", map[string]any(nextState)),
					)
				}
				log.LogAttrs(ctx, config.Level, "action", attrs...)
				return result, nil
			}
		}
	}
}

// ChangedSlices returns the sorted names of slices whose value differs
// between prev and next, including slices added or removed.
func ChangedSlices(prev, next store.State) []string {
	changed := []string{}
	for key, nv := range next {
		pv, ok := prev[key]
		if !ok || !store.SameValue(pv, nv) {
			changed = append(changed, key)
		}
	}
	for key := range prev {
		if _, ok := next[key]; !ok {
			changed = append(changed, key)
		}
	}
	sort.Strings(changed)
	return changed
}

func plainAction(v any) (store.Action, bool) {
	switch a := v.(type) {
	case store.Action:
		return a, true
	case *store.Action:
		if a != nil {
			return *a, true
		}
	}
	return store.Action{}, false
}
