package middleware

import (
	"context"

	"github.com/consilium/popcorn/pkg/store"
)

// ThunkFunc is a dispatchable function. It receives the store's full dispatch
// and getState and may dispatch any number of actions, now or later.
type ThunkFunc func(ctx context.Context, dispatch store.DispatchFunc, getState func() store.State) (any, error)

// ThunkOption configures the thunk middleware.
type ThunkOption func(*thunkConfig)

type thunkConfig struct {
	extra    any
	hasExtra bool
}

// WithExtraArgument makes extra available to thunks through ExtraArgument.
// Typically an API client.
func WithExtraArgument(extra any) ThunkOption {
	return func(c *thunkConfig) {
		c.extra = extra
		c.hasExtra = true
	}
}

type extraArgumentKey struct{}

// ExtraArgument returns the value configured with WithExtraArgument, or nil.
func ExtraArgument(ctx context.Context) any {
	return ctx.Value(extraArgumentKey{})
}

// Thunk creates middleware that runs ThunkFunc values instead of passing them
// to the reducers. The thunk's return value becomes the return value of
// Dispatch. Everything else goes to the next middleware untouched.
func Thunk(opts ...ThunkOption) store.Middleware {
	config := thunkConfig{}
	for _, opt := range opts {
		opt(&config)
	}

	return func(api store.API) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(ctx context.Context, action any) (any, error) {
				fn, ok := asThunk(action)
				if !ok {
					return next(ctx, action)
				}
				if config.hasExtra {
					ctx = context.WithValue(ctx, extraArgumentKey{}, config.extra)
				}
				return fn(ctx, api.Dispatch, api.GetState)
			}
		}
	}
}

// IsThunk reports whether v would be run by the thunk middleware.
func IsThunk(v any) bool {
	_, ok := asThunk(v)
	return ok
}

func asThunk(v any) (ThunkFunc, bool) {
	switch fn := v.(type) {
	case ThunkFunc:
		return fn, fn != nil
	case func(context.Context, store.DispatchFunc, func() store.State) (any, error):
		return fn, fn != nil
	}
	return nil, false
}
