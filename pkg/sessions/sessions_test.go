package sessions

import (
	"context"
	"errors"
	"testing"

	"github.com/consilium/popcorn/pkg/middleware"
	"github.com/consilium/popcorn/pkg/store"
)

var ada = User{ID: 42, Name: "Ada"}

func TestReducerDefault(t *testing.T) {
	s, ok := Reducer(nil, store.Action{Type: store.ActionInit}).(Session)
	if !ok {
		t.Fatal("reducer should return a Session")
	}
	if s.LoggedIn() {
		t.Error("default session should have no current user")
	}
}

func TestReceiveCurrentUser(t *testing.T) {
	s := Reducer(Default(), ReceiveCurrentUser(ada)).(Session)
	if s.CurrentUser == nil || *s.CurrentUser != ada {
		t.Errorf("CurrentUser: got %+v, want %+v", s.CurrentUser, ada)
	}
}

func TestReceiveCurrentUserFromJSONPayload(t *testing.T) {
	action := store.Action{
		Type:    ActionReceiveCurrentUser,
		Payload: map[string]any{"id": float64(42), "name": "Ada"},
	}
	s := Reducer(nil, action).(Session)
	if s.CurrentUser == nil || *s.CurrentUser != ada {
		t.Errorf("CurrentUser: got %+v", s.CurrentUser)
	}
}

func TestReceiveCurrentUserClearsErrors(t *testing.T) {
	s := Reducer(Default(), ReceiveSessionErrors("bad password")).(Session)
	s = Reducer(s, ReceiveCurrentUser(ada)).(Session)
	if len(s.Errors) != 0 {
		t.Errorf("Errors: got %v, want none", s.Errors)
	}
}

func TestLogoutCurrentUser(t *testing.T) {
	s := Seeded(&ada)
	out := Reducer(s, LogoutCurrentUser()).(Session)
	if out.LoggedIn() {
		t.Error("user should be logged out")
	}

	def := Default()
	if !store.SameValue(def, Reducer(def, LogoutCurrentUser())) {
		t.Error("logging out nobody should not change the slice")
	}
}

func TestSessionErrors(t *testing.T) {
	s := Reducer(Seeded(&ada), ReceiveSessionErrors("expired")).(Session)
	if len(s.Errors) != 1 || s.Errors[0] != "expired" {
		t.Errorf("Errors: got %v", s.Errors)
	}
	if !s.LoggedIn() {
		t.Error("errors should not sign the user out")
	}

	s = Reducer(s, ClearSessionErrors()).(Session)
	if len(s.Errors) != 0 || !s.LoggedIn() {
		t.Errorf("after clear: got %+v", s)
	}
}

func TestUnknownActionReturnsState(t *testing.T) {
	s := Seeded(&ada)
	if !store.SameValue(s, Reducer(s, store.Action{Type: "RECEIVE_MOVIE_RATING"})) {
		t.Error("unrelated action should return the slice unchanged")
	}
}

func TestSelectors(t *testing.T) {
	state := store.State{SliceName: Seeded(&ada)}
	if u := CurrentUser(state); u == nil || u.ID != 42 {
		t.Errorf("CurrentUser: got %+v", u)
	}
	if CurrentUser(store.State{}) != nil {
		t.Error("missing slice should yield nil user")
	}
}

type fakeAuth struct {
	user      *User
	err       error
	loggedOut bool
}

func (f *fakeAuth) Login(context.Context, Credentials) (*User, error) { return f.user, f.err }
func (f *fakeAuth) Logout(context.Context) error {
	f.loggedOut = true
	return f.err
}
func (f *fakeAuth) Authenticate(context.Context) (*User, error)           { return f.user, f.err }
func (f *fakeAuth) Register(context.Context, Registration) (*User, error) { return f.user, f.err }

func newStore(t *testing.T, preloaded store.State) *store.Store {
	t.Helper()
	root, err := store.Combine(store.Reducers{SliceName: Reducer})
	if err != nil {
		t.Fatal(err)
	}
	s, err := store.New(root, preloaded, store.WithMiddleware(middleware.Thunk()))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoginThunk(t *testing.T) {
	s := newStore(t, nil)
	ctx := context.Background()

	if _, err := s.Dispatch(ctx, Login(&fakeAuth{user: &ada}, Credentials{Email: "ada@example.com"})); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if u := CurrentUser(s.GetState()); u == nil || *u != ada {
		t.Errorf("CurrentUser: got %+v", u)
	}
}

func TestLoginThunkFailure(t *testing.T) {
	s := newStore(t, nil)
	want := errors.New("invalid credentials")

	_, err := s.Dispatch(context.Background(), Login(&fakeAuth{err: want}, Credentials{}))
	if !errors.Is(err, want) {
		t.Fatalf("got %v, want %v", err, want)
	}
	sess, _ := Select(s.GetState())
	if len(sess.Errors) != 1 || sess.Errors[0] != want.Error() {
		t.Errorf("Errors: got %v", sess.Errors)
	}
}

func TestLogoutThunk(t *testing.T) {
	s := newStore(t, store.State{SliceName: Seeded(&ada)})
	auth := &fakeAuth{}

	if _, err := s.Dispatch(context.Background(), Logout(auth)); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !auth.loggedOut {
		t.Error("server logout not called")
	}
	if CurrentUser(s.GetState()) != nil {
		t.Error("user should be logged out")
	}
}

func TestAuthenticateThunk(t *testing.T) {
	t.Run("Known", func(t *testing.T) {
		s := newStore(t, nil)
		s.Dispatch(context.Background(), Authenticate(&fakeAuth{user: &ada}))
		if CurrentUser(s.GetState()) == nil {
			t.Error("expected signed in user")
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		s := newStore(t, store.State{SliceName: Seeded(&ada)})
		s.Dispatch(context.Background(), Authenticate(&fakeAuth{}))
		if CurrentUser(s.GetState()) != nil {
			t.Error("expected sign out when the token is unknown")
		}
	})
}

func TestSignupThunk(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		s := newStore(t, nil)
		reg := Registration{Name: "Ada", Email: "ada@example.com", Password: "secret"}
		if _, err := s.Dispatch(context.Background(), Signup(&fakeAuth{user: &ada}, reg)); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
		if u := CurrentUser(s.GetState()); u == nil || *u != ada {
			t.Errorf("CurrentUser: got %+v", u)
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		s := newStore(t, nil)
		want := errors.New("email already taken")
		_, err := s.Dispatch(context.Background(), Signup(&fakeAuth{err: want}, Registration{}))
		if !errors.Is(err, want) {
			t.Fatalf("got %v, want %v", err, want)
		}
		sess, _ := Select(s.GetState())
		if sess.LoggedIn() || len(sess.Errors) != 1 || sess.Errors[0] != want.Error() {
			t.Errorf("session: got %+v", sess)
		}
	})
}

func TestActionTypes(t *testing.T) {
	for _, typ := range ActionTypes() {
		if store.IsReserved(typ) || typ == "" {
			t.Errorf("action type %q should be a plain type", typ)
		}
	}
	if len(ActionTypes()) != 4 {
		t.Errorf("ActionTypes: got %d, want 4", len(ActionTypes()))
	}
}
