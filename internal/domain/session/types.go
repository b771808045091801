// Package session models the client's view of the authenticated session.
//
// The credential itself is an HTTP-only cookie owned by the HTTP client's
// cookie jar; this package only tracks who the server says we are and whether
// that question is still being asked.
package session

import "github.com/brotherhood-social/brotherhood/internal/domain/user"

// Status is the coarse authentication state.
type Status int

const (
	// StatusUnknown means the initial check has not settled yet.
	StatusUnknown Status = iota
	// StatusAuthenticated means the server confirmed a user.
	StatusAuthenticated
	// StatusAnonymous means there is no user.
	StatusAnonymous
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	// User is nil when nobody is signed in.
	User *user.User
	// Loading is true until the first auth check settles or the watchdog fires.
	Loading bool
	// IsAuthenticated is always User != nil.
	IsAuthenticated bool
}

// Status derives the coarse state from the snapshot.
func (s Snapshot) Status() Status {
	switch {
	case s.IsAuthenticated:
		return StatusAuthenticated
	case s.Loading:
		return StatusUnknown
	default:
		return StatusAnonymous
	}
}
