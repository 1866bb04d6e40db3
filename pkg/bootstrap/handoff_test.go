package bootstrap

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	perrors "github.com/consilium/popcorn/internal/errors"
	"github.com/consilium/popcorn/pkg/sessions"
)

func TestHandoffTakeClears(t *testing.T) {
	var h Handoff
	if _, ok := h.Take(); ok {
		t.Error("zero Handoff should be empty")
	}

	h.Set(&sessions.User{ID: 1})
	if u, ok := h.Peek(); !ok || u.ID != 1 {
		t.Errorf("Peek: got %+v, %v", u, ok)
	}
	if u, ok := h.Take(); !ok || u.ID != 1 {
		t.Errorf("Take: got %+v, %v", u, ok)
	}
	if _, ok := h.Take(); ok {
		t.Error("second Take should find the slot empty")
	}
}

func TestHandoffSingleReader(t *testing.T) {
	var h Handoff
	h.Set(&sessions.User{ID: 1})

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		takes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := h.Take(); ok {
				mu.Lock()
				takes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if takes != 1 {
		t.Errorf("value taken %d times, want 1", takes)
	}
}

func TestEncodeDecodeHandoff(t *testing.T) {
	u := &sessions.User{ID: 42, Name: "Ada </script><b>"}

	var page bytes.Buffer
	page.WriteString("<html><head>")
	if err := EncodeHandoff(&page, u); err != nil {
		t.Fatalf("EncodeHandoff: %v", err)
	}
	page.WriteString("</head><body></body></html>")

	if strings.Count(page.String(), "</script>") != 1 {
		t.Fatalf("payload must not close the element early: %s", page.String())
	}

	got, err := DecodeHandoff(&page)
	if err != nil {
		t.Fatalf("DecodeHandoff: %v", err)
	}
	if got == nil || *got != *u {
		t.Errorf("got %+v, want %+v", got, u)
	}
}

func TestEncodeHandoffNil(t *testing.T) {
	var page bytes.Buffer
	if err := EncodeHandoff(&page, nil); err != nil || page.Len() != 0 {
		t.Errorf("nil user should write nothing, got %q, %v", page.String(), err)
	}
}

func TestDecodeHandoff(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		wantID  uint
		wantErr bool
	}{
		{"no element", "<html></html>", 0, false},
		{"null", `<script id="current-user" type="application/json">null</script>`, 0, false},
		{"user", `<script id="current-user" type="application/json"> {"id":5,"name":"Ken"} </script>`, 5, false},
		{"malformed", `<script id="current-user" type="application/json">{"id":</script>`, 0, true},
		{"unterminated", `<script id="current-user" type="application/json">{"id":5}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := DecodeHandoff(strings.NewReader(tt.page))
			if tt.wantErr {
				if !perrors.HasCode(err, "E140") {
					t.Errorf("got %v, want E140", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeHandoff: %v", err)
			}
			var id uint
			if u != nil {
				id = u.ID
			}
			if id != tt.wantID {
				t.Errorf("ID: got %d, want %d", id, tt.wantID)
			}
		})
	}
}

func TestLoadHandoff(t *testing.T) {
	var h Handoff
	page := `<script id="current-user" type="application/json">{"id":9,"name":"Edsger"}</script>`
	if err := LoadHandoff(&h, strings.NewReader(page)); err != nil {
		t.Fatalf("LoadHandoff: %v", err)
	}
	if u, ok := h.Peek(); !ok || u.ID != 9 {
		t.Errorf("slot: got %+v", u)
	}

	h.Set(nil)
	if err := LoadHandoff(&h, strings.NewReader("<html></html>")); err != nil {
		t.Fatal(err)
	}
	if _, ok := h.Peek(); ok {
		t.Error("page without user should leave the slot empty")
	}
}
