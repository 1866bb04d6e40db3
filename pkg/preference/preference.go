// Package preference implements the userPreference slice: the movie ratings a
// user has given, which the recommender uses as input.
//
// Ratings are kept locally as the user makes them and are pushed to the server
// with SavePreference. When the server answers with its own copy the two are
// reconciled by a MergeStrategy.
//
// Example:
//
//	s.Dispatch(ctx, preference.ReceiveMovieRating(318, 4.5))
//	s.Dispatch(ctx, preference.SavePreference(client))
//
//	pref, _ := preference.Select(s.GetState())
package preference

import (
	"time"

	"github.com/consilium/popcorn/pkg/store"
)

// SliceName is the state key owned by Reducer.
const SliceName = "userPreference"

// Rating bounds, as used by the MovieLens data set.
const (
	MinRating = 0.5
	MaxRating = 5.0
)

// Action types.
const (
	ActionReceiveMovieRating    = "RECEIVE_MOVIE_RATING"
	ActionRemoveMovieRating     = "REMOVE_MOVIE_RATING"
	ActionReceiveUserPreference = "RECEIVE_USER_PREFERENCE"
	ActionClearUserPreference   = "CLEAR_USER_PREFERENCE"
)

// ActionTypes returns the action types the reducer handles.
func ActionTypes() []string {
	return []string{
		ActionReceiveMovieRating,
		ActionRemoveMovieRating,
		ActionReceiveUserPreference,
		ActionClearUserPreference,
	}
}

// Preference is the userPreference slice value.
type Preference struct {
	// Ratings maps movie IDs to the user's rating.
	Ratings map[uint]float64 `json:"ratings"`

	// UpdatedAt is when Ratings last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Default returns the slice's initial value: no ratings.
func Default() Preference {
	return Preference{Ratings: map[uint]float64{}}
}

// Rating returns the user's rating of a movie.
func (p Preference) Rating(movieID uint) (float64, bool) {
	r, ok := p.Ratings[movieID]
	return r, ok
}

// Len returns the number of rated movies.
func (p Preference) Len() int {
	return len(p.Ratings)
}

func (p Preference) clone() Preference {
	out := Preference{
		Ratings:   make(map[uint]float64, len(p.Ratings)),
		UpdatedAt: p.UpdatedAt,
	}
	for k, v := range p.Ratings {
		out.Ratings[k] = v
	}
	return out
}

// ValidRating reports whether r is within [MinRating, MaxRating].
func ValidRating(r float64) bool {
	return r >= MinRating && r <= MaxRating
}

// Select returns the userPreference slice from state.
func Select(state store.State) (Preference, bool) {
	return store.Select[Preference](state, SliceName)
}
