// Package bootstrap assembles the application store at startup.
//
// InitializeStore registers the slice reducers, seeds the sessions slice from
// the current user the server handed over, and applies the middleware chain
// (thunk first, then the logger):
//
//	// main
//	if err := bootstrap.LoadHandoff(bootstrap.CurrentUser, page); err != nil {
//	    return err
//	}
//	s, err := bootstrap.InitializeStore()
//	if err != nil {
//	    return err // startup fails; there is no fallback
//	}
//
// # Handoff
//
// The server-rendered page carries the signed-in user in a JSON script
// element. LoadHandoff puts it into a Handoff, a one-shot slot:
// InitializeStore takes the value and clears the slot, so a second
// InitializeStore in the same process starts with no seeded session.
// WithSeed passes the user explicitly and leaves every slot alone.
//
// InitializeStore is meant to be called once, by the program's entry point,
// which then passes the store to whatever needs it. Calling it twice builds
// two independent stores that share no state.
package bootstrap
