package bootstrap

import (
	"log/slog"

	"github.com/consilium/popcorn/pkg/middleware"
	"github.com/consilium/popcorn/pkg/preference"
	"github.com/consilium/popcorn/pkg/sessions"
	"github.com/consilium/popcorn/pkg/store"
)

// Option configures InitializeStore.
type Option func(*config)

type config struct {
	handoff    *Handoff
	seed       *sessions.User
	hasSeed    bool
	reducers   store.Reducers
	extra      []store.Middleware
	thunkOpts  []middleware.ThunkOption
	loggerOpts []middleware.LoggerOption
	logger     *slog.Logger
}

// WithHandoff reads the seed from h instead of CurrentUser.
func WithHandoff(h *Handoff) Option {
	return func(c *config) {
		c.handoff = h
	}
}

// WithSeed seeds the sessions slice with u directly. No handoff slot is read
// or cleared. A nil u means "nobody signed in".
func WithSeed(u *sessions.User) Option {
	return func(c *config) {
		c.seed = u
		c.hasSeed = true
	}
}

// WithReducers registers additional slice reducers. Entries named like a
// built-in slice replace it.
func WithReducers(r store.Reducers) Option {
	return func(c *config) {
		for k, v := range r {
			c.reducers[k] = v
		}
	}
}

// WithMiddleware appends middleware after the thunk and logger stages.
func WithMiddleware(mw ...store.Middleware) Option {
	return func(c *config) {
		c.extra = append(c.extra, mw...)
	}
}

// WithThunkOptions configures the thunk stage.
func WithThunkOptions(opts ...middleware.ThunkOption) Option {
	return func(c *config) {
		c.thunkOpts = append(c.thunkOpts, opts...)
	}
}

// WithLoggerOptions configures the logging stage.
func WithLoggerOptions(opts ...middleware.LoggerOption) Option {
	return func(c *config) {
		c.loggerOpts = append(c.loggerOpts, opts...)
	}
}

// WithLogger sets the logger for the store and the logging stage.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Reducers returns the built-in slice reducers.
func Reducers() store.Reducers {
	return store.Reducers{
		preference.SliceName: preference.Reducer,
		sessions.SliceName:   sessions.Reducer,
	}
}

// ActionTypes returns the action types the built-in reducers handle.
func ActionTypes() []string {
	return append(preference.ActionTypes(), sessions.ActionTypes()...)
}

// Preload builds the preloaded state for seed: a sessions entry when a user is
// given, nothing otherwise.
func Preload(seed *sessions.User) store.State {
	preloaded := store.State{}
	if seed != nil {
		preloaded[sessions.SliceName] = sessions.Seeded(seed)
	}
	return preloaded
}

// InitializeStore builds the application store. Errors from reducer
// validation or from the init dispatch are returned unchanged; the caller is
// expected to treat them as fatal.
func InitializeStore(opts ...Option) (*store.Store, error) {
	c := config{
		handoff:  CurrentUser,
		reducers: Reducers(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.Default().With("component", "bootstrap")
	}

	root, err := store.Combine(c.reducers)
	if err != nil {
		return nil, err
	}

	seed := c.seed
	if !c.hasSeed && c.handoff != nil {
		seed, _ = c.handoff.Take()
	}
	preloaded := Preload(seed)

	loggerOpts := append([]middleware.LoggerOption{middleware.WithLogLogger(c.logger)}, c.loggerOpts...)
	chain := append([]store.Middleware{
		middleware.Thunk(c.thunkOpts...),
		middleware.Logger(loggerOpts...),
	}, c.extra...)

	s, err := store.New(root, preloaded,
		store.WithMiddleware(chain...),
		store.WithLogger(c.logger),
	)
	if err != nil {
		return nil, err
	}

	c.logger.Info("store initialized",
		"slices", len(c.reducers),
		"seeded_session", seed != nil,
		"middleware", len(chain),
	)
	return s, nil
}
