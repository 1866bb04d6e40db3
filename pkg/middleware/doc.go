// Package middleware provides the dispatch middleware used by the popcorn
// store.
//
// This package includes:
//   - Thunk: lets dispatched values be functions that receive dispatch and
//     getState, for asynchronous work such as API calls
//   - Logger: structured slog records for every action and the state
//     transition it caused
//   - Prometheus: action counters and dispatch latency histograms
//   - OpenTelemetry: a span per dispatch
//
// # Ordering
//
// Thunk must come first so that the functions it runs are never seen by the
// middleware after it; Logger then observes only plain actions:
//
//	s, err := store.New(root, preloaded, store.WithMiddleware(
//	    middleware.Thunk(),
//	    middleware.Logger(),
//	    middleware.Prometheus(),
//	    middleware.OpenTelemetry(),
//	))
//
// None of the observers alter the action or the state they see.
package middleware
