// Package routing decides whether a page may render given the session state.
package routing

// Well-known paths.
const (
	PathLogin    = "/login"
	PathRegister = "/register"
	PathFeed     = "/feed"
	PathProfile  = "/profile"
	PathRoot     = "/"
)

// LoadingMessage is shown while the auth check is pending.
const LoadingMessage = "Checking authentication..."

// TimeoutMessage is shown when the guard gives up waiting for the auth check.
const TimeoutMessage = "Authentication check timed out. Please try again."

// Location is where the user is, or is being sent.
type Location struct {
	Pathname string
	State    *LocationState
}

// LocationState travels with a navigation.
type LocationState struct {
	// From is the page the user originally asked for before being redirected.
	From *Location
}

// FromPath returns State.From.Pathname, or "" when there is none.
func (l Location) FromPath() string {
	if l.State == nil || l.State.From == nil {
		return ""
	}
	return l.State.From.Pathname
}

// Outcome is what the page should do.
type Outcome int

const (
	// OutcomeLoading shows a loading indicator.
	OutcomeLoading Outcome = iota
	// OutcomeRender renders the page.
	OutcomeRender
	// OutcomeRedirect navigates elsewhere.
	OutcomeRedirect
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeRender:
		return "render"
	case OutcomeRedirect:
		return "redirect"
	default:
		return "loading"
	}
}

// Decision is the guard's verdict for one location.
type Decision struct {
	Outcome Outcome

	// Message accompanies OutcomeLoading.
	Message string

	// To, State and Replace describe an OutcomeRedirect.
	To      string
	State   *LocationState
	Replace bool
}

// Options configure a guarded route.
type Options struct {
	// RequireAuth gates the page on a signed-in user. When false the page is
	// for anonymous users only (login, register) and signed-in users are sent on.
	RequireAuth bool

	// RedirectTo is where anonymous users go. Defaults to /login.
	RedirectTo string
}

// Protected returns options for a page that needs a signed-in user.
func Protected() Options {
	return Options{RequireAuth: true, RedirectTo: PathLogin}
}

// PublicOnly returns options for a page only anonymous users should see.
func PublicOnly() Options {
	return Options{RequireAuth: false, RedirectTo: PathLogin}
}
