package api

import (
	stderrors "errors"
	"fmt"

	"github.com/consilium/popcorn/internal/errors"
)

// StatusError is a non-2xx answer from the server. Message is the server's
// explanation, suitable for the sessions slice error list.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// Unwrap exposes the coded form so errors.HasCode(err, "E161") holds.
func (e *StatusError) Unwrap() error {
	return errors.New("E161").WithDetail(fmt.Sprintf("HTTP %d: %s", e.Status, e.Message))
}

// StatusOf returns the HTTP status carried by err, if any.
func StatusOf(err error) (int, bool) {
	var se *StatusError
	if stderrors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}
