package preference

import (
	"log/slog"
	"time"

	"github.com/consilium/popcorn/pkg/store"
)

// MovieRating is the payload of ActionReceiveMovieRating and
// ActionRemoveMovieRating.
type MovieRating struct {
	MovieID uint      `json:"movie_id"`
	Rating  float64   `json:"rating,omitempty"`
	At      time.Time `json:"at"`
}

// Option configures a reducer built by NewReducer.
type Option func(*reducerConfig)

type reducerConfig struct {
	strategy   MergeStrategy
	onConflict func(local, remote Preference) Preference
}

// MergeWith sets the merge strategy used for ActionReceiveUserPreference.
func MergeWith(strategy MergeStrategy) Option {
	return func(c *reducerConfig) {
		c.strategy = strategy
	}
}

// OnConflict sets a custom conflict handler. It takes precedence over the
// merge strategy and must not modify its arguments.
func OnConflict(fn func(local, remote Preference) Preference) Option {
	return func(c *reducerConfig) {
		c.onConflict = fn
	}
}

// Reducer is the userPreference reducer with last-write-wins merging.
var Reducer = NewReducer()

// NewReducer builds a userPreference reducer.
func NewReducer(opts ...Option) store.Reducer {
	config := reducerConfig{strategy: LWW}
	for _, opt := range opts {
		opt(&config)
	}

	return func(state any, action store.Action) any {
		pref, ok := state.(Preference)
		if !ok {
			pref = Default()
		}

		switch action.Type {
		case ActionReceiveMovieRating:
			r, err := store.DecodePayload[MovieRating](action)
			if err != nil || r.MovieID == 0 || !ValidRating(r.Rating) {
				slog.Default().Warn("ignoring invalid movie rating",
					"component", "preference",
					"payload", action.Payload,
				)
				return pref
			}
			if cur, ok := pref.Ratings[r.MovieID]; ok && cur == r.Rating {
				return pref
			}
			next := pref.clone()
			next.Ratings[r.MovieID] = r.Rating
			next.UpdatedAt = r.At
			return next

		case ActionRemoveMovieRating:
			r, err := store.DecodePayload[MovieRating](action)
			if err != nil {
				return pref
			}
			if _, ok := pref.Ratings[r.MovieID]; !ok {
				return pref
			}
			next := pref.clone()
			delete(next.Ratings, r.MovieID)
			next.UpdatedAt = r.At
			return next

		case ActionReceiveUserPreference:
			remote, err := store.DecodePayload[Preference](action)
			if err != nil {
				return pref
			}
			if remote.Ratings == nil {
				remote.Ratings = map[uint]float64{}
			}
			if config.onConflict != nil {
				return config.onConflict(pref, remote)
			}
			return resolve(config.strategy, pref, remote)

		case ActionClearUserPreference:
			if pref.Len() == 0 {
				return pref
			}
			return Default()
		}
		return pref
	}
}
