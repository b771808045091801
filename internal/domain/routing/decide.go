package routing

import "github.com/brotherhood-social/brotherhood/internal/domain/session"

// Decide is the pure route-guard decision.
//
// Rules, first match wins:
//  1. still loading and not timed out: show the loader
//  2. timed out: replace-redirect to /login
//  3. protected page without a user: replace-redirect to RedirectTo, remembering loc
//  4. anonymous-only page with a user: replace-redirect to the remembered page or /feed
//  5. render
func Decide(snap session.Snapshot, timedOut bool, loc Location, opts Options) Decision {
	redirectTo := opts.RedirectTo
	if redirectTo == "" {
		redirectTo = PathLogin
	}

	switch {
	case snap.Loading && !timedOut:
		return Decision{Outcome: OutcomeLoading, Message: LoadingMessage}

	case timedOut:
		return Decision{Outcome: OutcomeRedirect, To: PathLogin, Replace: true}

	case opts.RequireAuth && snap.User == nil:
		from := loc
		return Decision{
			Outcome: OutcomeRedirect,
			To:      redirectTo,
			State:   &LocationState{From: &from},
			Replace: true,
		}

	case !opts.RequireAuth && snap.User != nil:
		to := loc.FromPath()
		if to == "" {
			to = PathFeed
		}
		return Decision{Outcome: OutcomeRedirect, To: to, Replace: true}

	default:
		return Decision{Outcome: OutcomeRender}
	}
}
