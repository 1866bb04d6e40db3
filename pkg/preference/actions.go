package preference

import (
	"context"
	"time"

	"github.com/consilium/popcorn/pkg/middleware"
	"github.com/consilium/popcorn/pkg/store"
)

// now is replaced in tests.
var now = time.Now

// ReceiveMovieRating records a rating for a movie.
func ReceiveMovieRating(movieID uint, rating float64) store.Action {
	return store.Action{
		Type:    ActionReceiveMovieRating,
		Payload: MovieRating{MovieID: movieID, Rating: rating, At: now()},
	}
}

// RemoveMovieRating forgets the rating for a movie.
func RemoveMovieRating(movieID uint) store.Action {
	return store.Action{
		Type:    ActionRemoveMovieRating,
		Payload: MovieRating{MovieID: movieID, At: now()},
	}
}

// ReceiveUserPreference hands a server copy of the preference to the reducer.
func ReceiveUserPreference(p Preference) store.Action {
	return store.Action{Type: ActionReceiveUserPreference, Payload: p}
}

// ClearUserPreference drops every rating.
func ClearUserPreference() store.Action {
	return store.Action{Type: ActionClearUserPreference}
}

// Syncer persists a preference on the server and returns the server's copy.
type Syncer interface {
	SavePreference(ctx context.Context, p Preference) (Preference, error)
}

// SavePreference returns a thunk that sends the current preference to the
// server and merges the answer back into the store.
func SavePreference(api Syncer) middleware.ThunkFunc {
	return func(ctx context.Context, dispatch store.DispatchFunc, getState func() store.State) (any, error) {
		local, ok := Select(getState())
		if !ok {
			local = Default()
		}
		remote, err := api.SavePreference(ctx, local)
		if err != nil {
			return nil, err
		}
		return dispatch(ctx, ReceiveUserPreference(remote))
	}
}
