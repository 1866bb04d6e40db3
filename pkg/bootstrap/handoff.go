package bootstrap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/consilium/popcorn/internal/errors"
	"github.com/consilium/popcorn/pkg/sessions"
)

// HandoffElementID is the id of the script element carrying the current user.
const HandoffElementID = "current-user"

// Handoff is a one-shot slot passing the current user from the server-rendered
// page to the store bootstrap. The zero value is empty and ready to use.
type Handoff struct {
	user atomic.Pointer[sessions.User]
}

// CurrentUser is the process-wide handoff slot read by InitializeStore unless
// another slot or an explicit seed is given.
var CurrentUser = &Handoff{}

// Set stores u, replacing any value not yet taken. A nil u clears the slot.
func (h *Handoff) Set(u *sessions.User) {
	h.user.Store(u)
}

// Take returns the stored user and clears the slot.
func (h *Handoff) Take() (*sessions.User, bool) {
	u := h.user.Swap(nil)
	return u, u != nil
}

// Peek returns the stored user without clearing the slot.
func (h *Handoff) Peek() (*sessions.User, bool) {
	u := h.user.Load()
	return u, u != nil
}

// EncodeHandoff writes the script element carrying u. A nil u writes nothing.
// The JSON encoder escapes <, > and &, so the payload cannot close the element.
func EncodeHandoff(w io.Writer, u *sessions.User) error {
	if u == nil {
		return nil
	}
	data, err := json.Marshal(u)
	if err != nil {
		return errors.New("E140").Wrap(err)
	}
	_, err = fmt.Fprintf(w, `<script id=%q type="application/json">%s</script>`, HandoffElementID, data)
	return err
}

var (
	handoffOpen  = []byte(fmt.Sprintf(`<script id=%q type="application/json">`, HandoffElementID))
	handoffClose = []byte(`</script>`)
)

// DecodeHandoff finds the element written by EncodeHandoff in page and
// returns the user it carries. A page without the element yields (nil, nil).
func DecodeHandoff(page io.Reader) (*sessions.User, error) {
	data, err := io.ReadAll(page)
	if err != nil {
		return nil, errors.New("E140").Wrap(err)
	}

	start := bytes.Index(data, handoffOpen)
	if start < 0 {
		return nil, nil
	}
	body := data[start+len(handoffOpen):]
	end := bytes.Index(body, handoffClose)
	if end < 0 {
		return nil, errors.New("E140").WithDetail("unterminated script element")
	}

	payload := bytes.TrimSpace(body[:end])
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, nil
	}

	var u sessions.User
	if err := json.Unmarshal(payload, &u); err != nil {
		return nil, errors.New("E140").Wrap(err)
	}
	return &u, nil
}

// LoadHandoff decodes the current user from page into h. Pages without a
// current user leave h untouched.
func LoadHandoff(h *Handoff, page io.Reader) error {
	u, err := DecodeHandoff(page)
	if err != nil {
		return err
	}
	if u != nil {
		h.Set(u)
	}
	return nil
}
