// Package store provides a reducer-driven application state container.
//
// State is a map from slice name to slice value. Each slice is owned by a
// Reducer, a pure function from (current slice value, action) to the next
// slice value. Combine joins the slice reducers into the root reducer the
// Store runs on every dispatch.
//
// Usage:
//
//	root, err := store.Combine(store.Reducers{
//	    "userPreference": preference.Reducer,
//	    "sessions":       session.Reducer,
//	})
//	if err != nil {
//	    return err
//	}
//
//	s, err := store.New(root, store.State{},
//	    store.WithMiddleware(middleware.Thunk(), middleware.Logger()),
//	)
//	if err != nil {
//	    return err
//	}
//
//	unsubscribe := s.Subscribe(func() { render(s.GetState()) })
//	defer unsubscribe()
//
//	_, err = s.Dispatch(ctx, preference.ReceiveMovieRating(318, 4.5))
//
// # Middleware
//
// Middleware wraps the dispatch function. The first middleware passed to
// WithMiddleware sees a dispatched value first; the innermost dispatch accepts
// only Action values and runs the root reducer.
//
// # Concurrency
//
// A Store is safe for concurrent use. Reducer passes are serialized on an
// internal mutex and listeners run after the mutex is released. Reducers must
// not call Dispatch: the call would wait on the pass that is running it.
package store
