package server

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/consilium/popcorn/internal/errors"
	"github.com/consilium/popcorn/pkg/bootstrap"
	"github.com/consilium/popcorn/pkg/sessions"
	"github.com/consilium/popcorn/pkg/store"
)

// Snapshot is the JSON form of the store state.
type Snapshot struct {
	Version uint64      `json:"version"`
	State   store.State `json:"state"`
}

func (s *Server) snapshot() Snapshot {
	return Snapshot{Version: s.store.Version(), State: s.store.GetState()}
}

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div id="root"></div>
{{.Handoff}}
</body>
</html>
`))

func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	var u *sessions.User
	if s.config.CurrentUser != nil {
		u = s.config.CurrentUser(r)
	} else {
		u = sessions.CurrentUser(s.store.GetState())
	}

	var handoff bytes.Buffer
	if err := bootstrap.EncodeHandoff(&handoff, u); err != nil {
		s.logger.Error("encode handoff failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := shellTemplate.Execute(w, struct {
		Title   string
		Handoff template.HTML
	}{s.config.Title, template.HTML(handoff.String())})
	if err != nil {
		s.logger.Error("render shell failed", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxActionBytes)

	var action store.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("E104").WithDetail("Request body is not a JSON action").Wrap(err))
		return
	}
	if store.IsReserved(action.Type) {
		writeError(w, http.StatusBadRequest, errors.New("E104").
			WithDetailf("Action type %q is reserved", action.Type))
		return
	}
	if _, ok := s.accepted[action.Type]; !ok && action.Type != "" {
		s.logger.Warn("action rejected", "action", truncate(action.Type, 64))
		writeError(w, http.StatusBadRequest, errors.New("E162").
			WithDetailf("Action type %q is not accepted", truncate(action.Type, 64)))
		return
	}

	if _, err := s.store.Dispatch(r.Context(), action); err != nil {
		status := http.StatusBadRequest
		if errors.HasCode(err, "E103") {
			status = http.StatusInternalServerError
		}
		s.logger.Warn("dispatch failed", "action", action.Type, "error", err)
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, s.snapshot())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	se := errors.FromError(err, "E104")
	writeJSON(w, status, map[string]any{"error": se})
}
