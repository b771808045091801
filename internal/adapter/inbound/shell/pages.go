package shell

import (
	"context"
	"fmt"
	"time"

	"github.com/brotherhood-social/brotherhood/internal/domain/routing"
	"github.com/brotherhood-social/brotherhood/internal/domain/user"
	"github.com/brotherhood-social/brotherhood/internal/port/outbound"
)

// page is a routable screen.
type page struct {
	opts routing.Options
	draw func(s *Shell)
}

// pages maps paths to screens. "/" is handled as an alias of /feed.
var pages = map[string]page{
	routing.PathLogin:    {opts: routing.PublicOnly(), draw: (*Shell).drawLogin},
	routing.PathRegister: {opts: routing.PublicOnly(), draw: (*Shell).drawRegister},
	routing.PathFeed:     {opts: routing.Protected(), draw: (*Shell).drawFeed},
	routing.PathProfile:  {opts: routing.Protected(), draw: (*Shell).drawProfile},
}

// render resolves the current location through the guard, following
// redirects, and draws the page it lands on.
func (s *Shell) render(ctx context.Context) {
	for hop := 0; hop < maxRedirects; hop++ {
		// Moves made after this point, by a background check for example,
		// are rendered on the next command.
		s.rendered = s.history.Seq()
		loc := s.history.Location()
		if loc.Pathname == routing.PathRoot {
			s.history.Navigate(routing.PathFeed, outbound.NavigateOptions{Replace: true})
			continue
		}

		p, ok := pages[loc.Pathname]
		if !ok {
			fmt.Fprintf(s.out, "Page not found: %s\n", loc.Pathname)
			return
		}

		if s.auth.Snapshot().Loading {
			fmt.Fprintln(s.out, routing.LoadingMessage)
		}
		d := s.guard.Resolve(ctx, loc, p.opts)
		switch d.Outcome {
		case routing.OutcomeRender:
			fmt.Fprintf(s.out, "== %s ==\n", loc.Pathname)
			p.draw(s)
			return
		case routing.OutcomeRedirect:
			timedOut := s.auth.Snapshot().Loading
			s.logger.Debug("route redirect", "from", loc.Pathname, "to", d.To, "timed_out", timedOut)
			s.history.Navigate(d.To, outbound.NavigateOptions{Replace: d.Replace, State: d.State})
			if timedOut {
				// The check is still pending; show the login page rather than wait again.
				s.rendered = s.history.Seq()
				fmt.Fprintf(s.out, "== %s ==\n", d.To)
				s.drawLogin()
				return
			}
		default:
			// ctx ended while the check was pending.
			fmt.Fprintln(s.out, d.Message)
			return
		}
	}
	s.logger.Warn("too many redirects", "path", s.history.Location().Pathname)
	fmt.Fprintln(s.out, "Too many redirects")
}

func (s *Shell) drawLogin() {
	fmt.Fprintln(s.out, "Sign in: login <email> <password>")
	fmt.Fprintln(s.out, "No account? register <email> <password> <first name> <last name> [date of birth]")
}

func (s *Shell) drawRegister() {
	fmt.Fprintln(s.out, "Create an account: register <email> <password> <first name> <last name> [date of birth]")
	fmt.Fprintln(s.out, "Have an account? login <email> <password>")
}

func (s *Shell) drawFeed() {
	u := s.auth.Snapshot().User
	fmt.Fprintf(s.out, "Welcome, %s (%s)\n", user.DisplayName(u), emailOf(u))
	fmt.Fprintln(s.out, "Try: get /posts, post /posts {\"content\":\"...\"}, open /profile")
}

func (s *Shell) drawProfile() {
	u := s.auth.Snapshot().User
	fmt.Fprintf(s.out, "[%s] %s\n", user.Initials(u), user.FullName(u))
	fmt.Fprintf(s.out, "Email: %s\n", emailOf(u))
	if u != nil && u.DateOfBirth != "" {
		fmt.Fprintf(s.out, "Born: %s\n", u.DateOfBirth)
	}
	if u != nil && !u.CreatedAt.IsZero() {
		fmt.Fprintf(s.out, "Member since: %s\n", u.CreatedAt.Format(time.DateOnly))
	}
}

func emailOf(u *user.User) string {
	if u == nil {
		return ""
	}
	return u.Email
}
