package store

import (
	"context"

	"github.com/consilium/popcorn/internal/errors"
)

// DispatchFunc sends a value through the dispatch chain.
// Plain dispatch returns the action it was given.
type DispatchFunc func(ctx context.Context, action any) (any, error)

// API is the view of the store handed to middleware.
type API struct {
	GetState func() State
	Dispatch DispatchFunc
}

// Middleware intercepts dispatched values before they reach the reducers.
// It is called once with the store API and must return a wrapper that, given
// the next dispatch in the chain, returns its own dispatch.
type Middleware func(api API) func(next DispatchFunc) DispatchFunc

// ApplyMiddleware composes mws around base. The first middleware sees a
// dispatched value first. api.Dispatch, as seen by the middleware, runs the
// whole composed chain; calling it before composition finishes fails with
// E106.
func ApplyMiddleware(getState func() State, base DispatchFunc, mws ...Middleware) DispatchFunc {
	dispatch := DispatchFunc(func(context.Context, any) (any, error) {
		return nil, errors.New("E106")
	})

	api := API{
		GetState: getState,
		Dispatch: func(ctx context.Context, action any) (any, error) {
			return dispatch(ctx, action)
		},
	}

	wrappers := make([]func(DispatchFunc) DispatchFunc, 0, len(mws))
	for _, mw := range mws {
		if mw == nil {
			continue
		}
		wrappers = append(wrappers, mw(api))
	}

	composed := base
	for i := len(wrappers) - 1; i >= 0; i-- {
		composed = wrappers[i](composed)
	}
	dispatch = composed
	return composed
}
