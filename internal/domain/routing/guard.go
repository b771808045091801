package routing

import (
	"context"
	"log/slog"
	"time"

	"github.com/brotherhood-social/brotherhood/internal/domain/session"
)

// DefaultTimeout bounds how long a page waits for the auth check.
const DefaultTimeout = 10 * time.Second

// Alerter shows an error notice to the user.
type Alerter interface {
	Error(msg string)
}

// Guard resolves a location to a final decision, waiting for the session to
// settle for at most its timeout.
type Guard struct {
	source  session.Source
	alerter Alerter
	timeout time.Duration
	logger  *slog.Logger
}

// NewGuard creates a Guard. A zero timeout uses DefaultTimeout; a nil logger uses slog.Default().
func NewGuard(source session.Source, alerter Alerter, timeout time.Duration, logger *slog.Logger) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		source:  source,
		alerter: alerter,
		timeout: timeout,
		logger:  logger,
	}
}

// Resolve blocks until the session is no longer loading, the guard times out,
// or ctx is done, then returns the decision for loc. It never returns
// OutcomeLoading unless ctx ends first.
//
// On timeout the user is told the check timed out and sent to /login.
func (g *Guard) Resolve(ctx context.Context, loc Location, opts Options) Decision {
	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	for {
		snap, changed := g.source.Watch()
		if !snap.Loading {
			return Decide(snap, false, loc, opts)
		}

		select {
		case <-changed:
			continue
		case <-timer.C:
			g.logger.Warn("auth check timed out", "path", loc.Pathname, "timeout", g.timeout)
			if g.alerter != nil {
				g.alerter.Error(TimeoutMessage)
			}
			return Decide(g.source.Snapshot(), true, loc, opts)
		case <-ctx.Done():
			return Decide(snap, false, loc, opts)
		}
	}
}
