package store

import "strings"

// Reserved action types dispatched by the store itself.
const (
	// ActionInit is dispatched once when a Store is created.
	ActionInit = "@@store/INIT"

	// ActionReplace is dispatched after ReplaceReducer swaps the root reducer.
	ActionReplace = "@@store/REPLACE"

	reservedPrefix = "@@store/"
)

// Action describes an intended state change.
type Action struct {
	// Type identifies the change. Types starting with "@@store/" are reserved.
	Type string `json:"type"`

	// Payload carries the data the reducers need.
	Payload any `json:"payload,omitempty"`

	// Meta carries data no reducer should depend on (ids, timestamps).
	Meta map[string]any `json:"meta,omitempty"`
}

// IsReserved reports whether an action type belongs to the store.
func IsReserved(actionType string) bool {
	return strings.HasPrefix(actionType, reservedPrefix)
}

// WithMeta returns a copy of a with key set in its Meta.
func (a Action) WithMeta(key string, value any) Action {
	meta := make(map[string]any, len(a.Meta)+1)
	for k, v := range a.Meta {
		meta[k] = v
	}
	meta[key] = value
	a.Meta = meta
	return a
}
