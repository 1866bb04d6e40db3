// Package errors provides structured, coded errors for the popcorn store.
//
// Every failure the store, its middleware, configuration or the bootstrap
// handoff can report is registered under a short code (e.g. "E101") that maps
// to a category, a one-line message and a longer explanation.
//
// # Categories
//
//   - store: reducer map validation, initialization and dispatch failures
//   - config: popcorn.json loading and validation
//   - handoff: decoding the server-rendered current user
//   - transport: HTTP calls made by thunks
//   - cli: command-line usage errors
//
// # Usage
//
//	err := errors.New("E101").
//	    WithDetail(`reducer for slice "userPreference" is nil`).
//	    WithSuggestion("Register a non-nil store.Reducer for every slice")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Malformed reducer map
//	//
//	//   reducer for slice "userPreference" is nil
//	//
//	//   Hint: Register a non-nil store.Reducer for every slice
package errors
