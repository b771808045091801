package session

// Source exposes session state to readers such as the route guard.
// This interface is defined in the domain to avoid circular imports.
type Source interface {
	// Snapshot returns the current state.
	Snapshot() Snapshot

	// Watch returns the current state and a channel that is closed on the
	// next change. Callers re-Watch after each close.
	Watch() (Snapshot, <-chan struct{})
}

// Compile-time check that State implements Source.
var _ Source = (*State)(nil)
