// Package sessions implements the sessions slice: who is signed in.
//
// The slice is normally seeded at startup from the server-rendered current
// user (see package bootstrap) and afterwards changes only through the actions
// below.
package sessions

import (
	"github.com/consilium/popcorn/pkg/store"
)

// SliceName is the state key owned by Reducer.
const SliceName = "sessions"

// Action types.
const (
	ActionReceiveCurrentUser   = "RECEIVE_CURRENT_USER"
	ActionLogoutCurrentUser    = "LOGOUT_CURRENT_USER"
	ActionReceiveSessionErrors = "RECEIVE_SESSION_ERRORS"
	ActionClearSessionErrors   = "CLEAR_SESSION_ERRORS"
)

// ActionTypes returns the action types Reducer handles.
func ActionTypes() []string {
	return []string{
		ActionReceiveCurrentUser,
		ActionLogoutCurrentUser,
		ActionReceiveSessionErrors,
		ActionClearSessionErrors,
	}
}

// User is the signed-in user as the server describes it. The session token
// lives in the API client, never in state.
type User struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Session is the sessions slice value.
type Session struct {
	CurrentUser *User    `json:"currentUser"`
	Errors      []string `json:"errors,omitempty"`
}

// LoggedIn reports whether a user is signed in.
func (s Session) LoggedIn() bool {
	return s.CurrentUser != nil
}

// Default returns the slice's initial value: nobody signed in.
func Default() Session {
	return Session{}
}

// Seeded returns the slice value for a user handed over by the server.
func Seeded(u *User) Session {
	return Session{CurrentUser: u}
}

// Select returns the sessions slice from state.
func Select(state store.State) (Session, bool) {
	return store.Select[Session](state, SliceName)
}

// CurrentUser returns the signed-in user, or nil.
func CurrentUser(state store.State) *User {
	s, _ := Select(state)
	return s.CurrentUser
}

// Reducer is the sessions reducer.
func Reducer(state any, action store.Action) any {
	s, ok := state.(Session)
	if !ok {
		s = Default()
	}

	switch action.Type {
	case ActionReceiveCurrentUser:
		u, err := store.DecodePayload[User](action)
		if err != nil {
			return s
		}
		return Session{CurrentUser: &u}

	case ActionLogoutCurrentUser:
		if s.CurrentUser == nil && len(s.Errors) == 0 {
			return s
		}
		return Default()

	case ActionReceiveSessionErrors:
		errs, err := store.DecodePayload[[]string](action)
		if err != nil {
			return s
		}
		return Session{CurrentUser: s.CurrentUser, Errors: append([]string(nil), errs...)}

	case ActionClearSessionErrors:
		if len(s.Errors) == 0 {
			return s
		}
		return Session{CurrentUser: s.CurrentUser}
	}
	return s
}
