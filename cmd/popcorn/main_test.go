package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/consilium/popcorn/internal/errors"
	"github.com/consilium/popcorn/pkg/api"
	"github.com/consilium/popcorn/pkg/preference"
	"github.com/consilium/popcorn/pkg/sessions"
)

type stateOutput struct {
	Version uint64 `json:"version"`
	State   struct {
		Sessions       sessions.Session      `json:"sessions"`
		UserPreference preference.Preference `json:"userPreference"`
	} `json:"state"`
}

func run(t *testing.T, args ...string) (stateOutput, string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)

	err := cmd.Execute()
	var got stateOutput
	if err == nil && out.Len() > 0 && strings.HasPrefix(strings.TrimSpace(out.String()), "{") {
		if jerr := json.Unmarshal(out.Bytes(), &got); jerr != nil {
			t.Fatalf("output is not JSON: %v\n%s", jerr, out.String())
		}
	}
	return got, out.String() + logs.String(), err
}

func TestStateDefaults(t *testing.T) {
	got, _, err := run(t, "state", "-C", t.TempDir())
	if err != nil {
		t.Fatalf("state error = %v", err)
	}
	if got.State.Sessions.CurrentUser != nil {
		t.Errorf("CurrentUser = %+v, want nil", got.State.Sessions.CurrentUser)
	}
	if got.State.UserPreference.Len() != 0 {
		t.Errorf("ratings = %v, want none", got.State.UserPreference.Ratings)
	}
}

func TestStateSeedAndActions(t *testing.T) {
	got, logs, err := run(t, "state", "-C", t.TempDir(),
		"--log-level", "debug",
		"--current-user", `{"id":42,"name":"Ada"}`,
		"--action", `{"type":"RECEIVE_MOVIE_RATING","payload":{"movie_id":1,"rating":4}}`,
		"--action", `[{"type":"RECEIVE_MOVIE_RATING","payload":{"movie_id":2,"rating":3.5}},{"type":"REMOVE_MOVIE_RATING","payload":{"movie_id":1}}]`,
	)
	if err != nil {
		t.Fatalf("state error = %v", err)
	}

	if u := got.State.Sessions.CurrentUser; u == nil || u.ID != 42 || u.Name != "Ada" {
		t.Errorf("CurrentUser = %+v, want 42/Ada", u)
	}
	if _, ok := got.State.UserPreference.Rating(1); ok {
		t.Error("rating for movie 1 should have been removed")
	}
	if r, _ := got.State.UserPreference.Rating(2); r != 3.5 {
		t.Errorf("rating for movie 2 = %v, want 3.5", r)
	}
	if !strings.Contains(logs, "RECEIVE_MOVIE_RATING") {
		t.Errorf("debug logs should record dispatched actions:\n%s", logs)
	}
}

func TestStateBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad user", []string{"--current-user", "{"}},
		{"bad action", []string{"--action", "nope"}},
		{"bad log level", []string{"--log-level", "chatty"}},
		{"login without api", []string{"--login", "ada@example.com:secret"}},
		{"signup without api", []string{"--signup", "Ada:ada@example.com:secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"state", "-C", t.TempDir()}, tt.args...)
			_, _, err := run(t, args...)
			if !errors.HasCode(err, "E180") {
				t.Errorf("error = %v, want E180", err)
			}
		})
	}
}

func TestStateEmptyActionType(t *testing.T) {
	_, _, err := run(t, "state", "-C", t.TempDir(), "--action", `{"payload":1}`)
	if !errors.HasCode(err, "E105") {
		t.Errorf("error = %v, want E105", err)
	}
}

func TestStateLoginAndSync(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+api.PathLogin, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.Account{User: sessions.User{ID: 7, Name: "Grace"}, SessionToken: "t"})
	})
	mux.HandleFunc("POST "+api.PathPreference, func(w http.ResponseWriter, r *http.Request) {
		var p preference.Preference
		json.NewDecoder(r.Body).Decode(&p)
		json.NewEncoder(w).Encode(p)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	dir := t.TempDir()
	cfg := `{"server": {"apiBaseURL": "` + ts.URL + `"}, "metrics": {"enabled": true}}`
	if err := os.WriteFile(filepath.Join(dir, "popcorn.json"), []byte(cfg), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, _, err := run(t, "state", "-C", dir,
		"--login", "grace@example.com:secret",
		"--action", `{"type":"RECEIVE_MOVIE_RATING","payload":{"movie_id":3,"rating":5}}`,
		"--sync",
	)
	if err != nil {
		t.Fatalf("state error = %v", err)
	}
	if u := got.State.Sessions.CurrentUser; u == nil || u.ID != 7 {
		t.Errorf("CurrentUser = %+v, want 7", u)
	}
	if r, _ := got.State.UserPreference.Rating(3); r != 5 {
		t.Errorf("rating for movie 3 = %v, want 5", r)
	}
}

func TestVersion(t *testing.T) {
	_, out, err := run(t, "version", "--short")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version output = %q, want %q", out, version)
	}
}

func TestStateSignup(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+api.PathRegister, func(w http.ResponseWriter, r *http.Request) {
		var reg sessions.Registration
		json.NewDecoder(r.Body).Decode(&reg)
		json.NewEncoder(w).Encode(api.Account{User: sessions.User{ID: 8, Name: reg.Name, Email: reg.Email}, SessionToken: "signup-token"})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	dir := t.TempDir()
	cfg := `{"server": {"apiBaseURL": "` + ts.URL + `"}}`
	if err := os.WriteFile(filepath.Join(dir, "popcorn.json"), []byte(cfg), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, out, err := run(t, "state", "-C", dir, "--log-level", "debug", "--signup", "Linus:linus@example.com:secret")
	if err != nil {
		t.Fatalf("state error = %v", err)
	}
	if u := got.State.Sessions.CurrentUser; u == nil || u.ID != 8 || u.Name != "Linus" {
		t.Errorf("CurrentUser = %+v, want 8/Linus", u)
	}
	if strings.Contains(out, "signup-token") {
		t.Error("output exposes the session token")
	}

	if _, _, err := run(t, "state", "-C", dir, "--signup", "no-colons"); !errors.HasCode(err, "E180") {
		t.Errorf("malformed --signup error = %v, want E180", err)
	}
}
