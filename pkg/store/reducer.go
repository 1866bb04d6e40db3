package store

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/consilium/popcorn/internal/errors"
)

// State maps slice names to slice values.
type State map[string]any

// Clone returns a shallow copy of s.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Select returns the slice stored under key as a T.
func Select[T any](s State, key string) (T, bool) {
	v, ok := s[key].(T)
	return v, ok
}

// Reducer maps the current value and an action to the next value.
// A nil state asks the reducer for its default value.
type Reducer func(state any, action Action) any

// Reducers maps slice names to the reducers owning them.
type Reducers map[string]Reducer

// Combine builds the root reducer for a set of slice reducers.
//
// Each reducer is probed with a nil state and the init action; it must return a
// non-nil default. The returned reducer hands every action to every slice
// reducer and returns the previous State unchanged when no slice changed.
// Keys of the incoming state without a reducer are dropped.
func Combine(reducers Reducers) (Reducer, error) {
	if len(reducers) == 0 {
		return nil, errors.New("E101").
			WithDetail("no reducers were registered").
			WithSuggestion("Pass at least one slice reducer to store.Combine")
	}

	keys := make([]string, 0, len(reducers))
	for key, r := range reducers {
		if key == "" {
			return nil, errors.New("E101").WithDetail("slice name is empty")
		}
		if r == nil {
			return nil, errors.New("E101").
				WithDetailf("reducer for slice %q is nil", key).
				WithSuggestion("Register a non-nil store.Reducer for every slice")
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		initial, err := callReducer(key, reducers[key], nil, Action{Type: ActionInit})
		if err != nil {
			return nil, err
		}
		if initial == nil {
			return nil, errors.New("E102").
				WithDetailf("reducer for slice %q returned nil for the init action", key).
				WithSuggestion("Return the slice's default value when state is nil")
		}
	}

	var warned sync.Map
	return func(state any, action Action) any {
		prev, _ := state.(State)

		for key := range prev {
			if _, ok := reducers[key]; ok {
				continue
			}
			if _, loaded := warned.LoadOrStore(key, struct{}{}); !loaded {
				logger().Warn("dropping state key with no reducer",
					"key", key,
					"action", action.Type,
				)
			}
		}

		next := make(State, len(keys))
		changed := false
		for _, key := range keys {
			prevSlice, had := prev[key]
			nextSlice := reducers[key](prevSlice, action)
			if nextSlice == nil {
				panic(errors.New("E102").
					WithDetailf("reducer for slice %q returned nil for action %q", key, action.Type))
			}
			next[key] = nextSlice
			if !had || !SameValue(prevSlice, nextSlice) {
				changed = true
			}
		}
		if !changed && len(prev) == len(next) {
			return prev
		}
		return next
	}, nil
}

// callReducer runs r and turns a panic into an E103 error.
func callReducer(key string, r Reducer, state any, action Action) (out any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = panicError(rec).WithDetailf("slice %q, action %q", key, action.Type)
		}
	}()
	return r(state, action), nil
}

func panicError(rec any) *errors.StoreError {
	e := errors.New("E103")
	if err, ok := rec.(error); ok {
		return e.Wrap(err)
	}
	return e.Wrap(fmt.Errorf("%v", rec))
}

// SameValue reports whether a reducer handed back the value it was given.
// Reference kinds compare by identity, everything else by value.
func SameValue(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if va.Comparable() {
		return va.Equal(vb)
	}
	return reflect.DeepEqual(a, b)
}

func logger() *slog.Logger {
	return slog.Default().With("component", "store")
}
