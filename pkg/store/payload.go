package store

import (
	"encoding/json"
	"fmt"
)

// DecodePayload returns a's payload as a T. Payloads that arrived as decoded
// JSON (maps, float64s) are converted by re-encoding them.
func DecodePayload[T any](a Action) (T, error) {
	var out T
	switch p := a.Payload.(type) {
	case T:
		return p, nil
	case *T:
		if p != nil {
			return *p, nil
		}
		return out, fmt.Errorf("action %q: nil payload", a.Type)
	case nil:
		return out, fmt.Errorf("action %q: missing payload", a.Type)
	}

	data, err := json.Marshal(a.Payload)
	if err != nil {
		return out, fmt.Errorf("action %q: encode payload: %w", a.Type, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("action %q: payload is not a %T: %w", a.Type, out, err)
	}
	return out, nil
}
