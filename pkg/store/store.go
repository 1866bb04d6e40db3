package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/consilium/popcorn/internal/errors"
)

// Listener is called after every reducer pass.
type Listener func()

// Option configures a Store.
type Option func(*options)

type options struct {
	middleware []Middleware
	logger     *slog.Logger
}

// WithMiddleware appends middleware to the dispatch chain, in order.
func WithMiddleware(mw ...Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, mw...)
	}
}

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Store holds the application state.
type Store struct {
	mu      sync.Mutex
	reducer Reducer
	state   State
	version uint64

	listenersMu    sync.Mutex
	listeners      []listenerEntry
	nextListenerID uint64

	dispatch DispatchFunc
	logger   *slog.Logger
	actions  atomic.Uint64
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// New creates a store running root over preloaded and dispatches the init
// action. Keys present in preloaded override the reducers' defaults.
//
// A reducer that panics during the init dispatch makes New fail with E103.
func New(root Reducer, preloaded State, opts ...Option) (*Store, error) {
	if root == nil {
		return nil, errors.New("E101").WithDetail("root reducer is nil")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger()
	}

	s := &Store{
		reducer: root,
		state:   preloaded.Clone(),
		logger:  o.logger,
	}

	if _, err := s.baseDispatch(context.Background(), Action{Type: ActionInit}); err != nil {
		return nil, err
	}

	s.dispatch = ApplyMiddleware(s.GetState, s.baseDispatch, o.middleware...)

	s.logger.Debug("store created",
		"slices", len(s.state),
		"middleware", len(o.middleware),
	)
	return s, nil
}

// Dispatch sends action through the middleware chain.
func (s *Store) Dispatch(ctx context.Context, action any) (any, error) {
	return s.dispatch(ctx, action)
}

// GetState returns a shallow copy of the current state.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Version increments every time a reducer pass changes the state.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// ActionCount returns the number of plain actions reduced, init included.
func (s *Store) ActionCount() uint64 {
	return s.actions.Load()
}

// Subscribe registers l to run after every dispatch. The returned function
// removes it and may be called more than once.
func (s *Store) Subscribe(l Listener) func() {
	if l == nil {
		return func() {}
	}

	s.listenersMu.Lock()
	s.nextListenerID++
	id := s.nextListenerID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			for i, e := range s.listeners {
				if e.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// ListenerCount returns the number of active subscriptions.
func (s *Store) ListenerCount() int {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	return len(s.listeners)
}

// ReplaceReducer swaps the root reducer and dispatches ActionReplace so every
// slice can settle.
func (s *Store) ReplaceReducer(root Reducer) error {
	if root == nil {
		return errors.New("E101").WithDetail("root reducer is nil")
	}
	s.mu.Lock()
	s.reducer = root
	s.mu.Unlock()

	_, err := s.baseDispatch(context.Background(), Action{Type: ActionReplace})
	return err
}

// baseDispatch is the innermost dispatch: it runs the root reducer.
func (s *Store) baseDispatch(ctx context.Context, v any) (any, error) {
	action, err := toAction(v)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.reduce(action); err != nil {
		return nil, err
	}
	s.actions.Add(1)

	s.listenersMu.Lock()
	listeners := make([]listenerEntry, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l.fn()
	}
	return action, nil
}

func (s *Store) reduce(action Action) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			err = panicError(rec).WithDetailf("action %q", action.Type)
		}
	}()

	next := s.reducer(s.state, action)
	nextState, ok := next.(State)
	if !ok {
		return errors.New("E102").
			WithDetailf("root reducer returned %T for action %q, want store.State", next, action.Type)
	}
	if !SameValue(s.state, nextState) {
		s.state = nextState
		s.version++
	}
	return nil
}

func toAction(v any) (Action, error) {
	var action Action
	switch a := v.(type) {
	case Action:
		action = a
	case *Action:
		if a == nil {
			return Action{}, errors.New("E104").WithDetail("nil *store.Action")
		}
		action = *a
	default:
		return Action{}, errors.New("E104").
			WithDetail(fmt.Sprintf("got %T; actions must be store.Action values", v)).
			WithSuggestion("Add middleware.Thunk to dispatch functions")
	}
	if action.Type == "" {
		return Action{}, errors.New("E105")
	}
	return action, nil
}
