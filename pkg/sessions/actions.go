package sessions

import (
	"context"

	"github.com/consilium/popcorn/pkg/middleware"
	"github.com/consilium/popcorn/pkg/store"
)

// ReceiveCurrentUser signs u in.
func ReceiveCurrentUser(u User) store.Action {
	return store.Action{Type: ActionReceiveCurrentUser, Payload: u}
}

// LogoutCurrentUser signs the current user out.
func LogoutCurrentUser() store.Action {
	return store.Action{Type: ActionLogoutCurrentUser}
}

// ReceiveSessionErrors records errors from a failed login.
func ReceiveSessionErrors(errs ...string) store.Action {
	return store.Action{Type: ActionReceiveSessionErrors, Payload: errs}
}

// ClearSessionErrors drops recorded errors.
func ClearSessionErrors() store.Action {
	return store.Action{Type: ActionClearSessionErrors}
}

// Credentials are what a user signs in with.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is what a new user signs up with.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registrar creates accounts on the server.
type Registrar interface {
	Register(ctx context.Context, r Registration) (*User, error)
}

// Authenticator talks to the server's session endpoints.
type Authenticator interface {
	Login(ctx context.Context, c Credentials) (*User, error)
	Logout(ctx context.Context) error
	Authenticate(ctx context.Context) (*User, error)
}

// Login returns a thunk that signs in with c. On failure the error is
// recorded in the slice and returned.
func Login(auth Authenticator, c Credentials) middleware.ThunkFunc {
	return func(ctx context.Context, dispatch store.DispatchFunc, _ func() store.State) (any, error) {
		u, err := auth.Login(ctx, c)
		if err != nil {
			if _, derr := dispatch(ctx, ReceiveSessionErrors(err.Error())); derr != nil {
				return nil, derr
			}
			return nil, err
		}
		return dispatch(ctx, ReceiveCurrentUser(*u))
	}
}

// Logout returns a thunk that ends the server session, then signs out
// locally.
func Logout(auth Authenticator) middleware.ThunkFunc {
	return func(ctx context.Context, dispatch store.DispatchFunc, _ func() store.State) (any, error) {
		if err := auth.Logout(ctx); err != nil {
			return nil, err
		}
		return dispatch(ctx, LogoutCurrentUser())
	}
}

// Authenticate returns a thunk that asks the server who the session token
// belongs to. A nil user signs out.
func Authenticate(auth Authenticator) middleware.ThunkFunc {
	return func(ctx context.Context, dispatch store.DispatchFunc, _ func() store.State) (any, error) {
		u, err := auth.Authenticate(ctx)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return dispatch(ctx, LogoutCurrentUser())
		}
		return dispatch(ctx, ReceiveCurrentUser(*u))
	}
}

// Signup returns a thunk that creates an account and signs the new user in.
// On failure the error is recorded in the slice and returned.
func Signup(reg Registrar, r Registration) middleware.ThunkFunc {
	return func(ctx context.Context, dispatch store.DispatchFunc, _ func() store.State) (any, error) {
		u, err := reg.Register(ctx, r)
		if err != nil {
			if _, derr := dispatch(ctx, ReceiveSessionErrors(err.Error())); derr != nil {
				return nil, derr
			}
			return nil, err
		}
		return dispatch(ctx, ReceiveCurrentUser(*u))
	}
}
