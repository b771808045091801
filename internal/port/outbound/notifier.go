// Package outbound defines the outbound port interfaces the client core
// uses to reach the user and the page history.
package outbound

import "github.com/brotherhood-social/brotherhood/internal/domain/routing"

// Notifier shows short, transient notices to the user.
// Adapters print them, log them or record them for tests.
type Notifier interface {
	// Success shows a confirmation notice.
	Success(msg string)

	// Error shows a failure notice.
	Error(msg string)
}

// NavigateOptions qualify a navigation.
type NavigateOptions struct {
	// Replace swaps the current history entry instead of pushing a new one.
	Replace bool

	// State travels with the new location.
	State *routing.LocationState
}

// Navigator is the page history.
type Navigator interface {
	// Location returns where the user currently is.
	Location() routing.Location

	// Navigate moves to path.
	Navigate(path string, opts NavigateOptions)
}
