package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/httpapi"
	"github.com/brotherhood-social/brotherhood/internal/domain/routing"
	"github.com/brotherhood-social/brotherhood/internal/domain/session"
	"github.com/brotherhood-social/brotherhood/internal/domain/user"
	"github.com/brotherhood-social/brotherhood/internal/port/inbound"
	"github.com/brotherhood-social/brotherhood/internal/port/outbound"
)

// Auth endpoints.
const (
	PathMe       = "/auth/me"
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathLogout   = "/auth/logout"
	PathProfile  = "/auth/profile"
)

// DefaultCheckTimeout bounds how long Mount lets the first auth check keep
// the session loading.
const DefaultCheckTimeout = 10 * time.Second

// User-facing notices of the auth flows.
const (
	MsgRegistered       = "Welcome to Brotherhood! Your account has been created."
	MsgLoggedOut        = "You have been logged out successfully"
	MsgProfileUpdated   = "Profile updated successfully"
	MsgLoginFailed      = "Invalid credentials"
	MsgRegisterFailed   = "Registration failed"
	MsgUpdateFailed     = "Failed to update profile"
	msgWelcomeBackFmt   = "Welcome back, %s!"
	logAuthCheckTimeout = "auth check timed out"
)

// Result is the outcome of a login, registration or profile update.
type Result struct {
	Success bool
	// Error is the message shown to the user on failure.
	Error string
	// User is the record the server returned on success.
	User *user.User
}

// Compile-time check that AuthService can feed the route guard.
var _ session.Source = (*AuthService)(nil)

// AuthService owns the signed-in user for the lifetime of the process.
// The credential itself is a server-set cookie kept by the HTTP client;
// this service only mirrors who the server says is signed in.
type AuthService struct {
	api          inbound.API
	state        *session.State
	notifier     outbound.Notifier
	navigator    outbound.Navigator
	checkTimeout time.Duration
	logger       *slog.Logger
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithCheckTimeout sets the Mount watchdog. If not set, defaults to 10 seconds.
func WithCheckTimeout(d time.Duration) AuthOption {
	return func(s *AuthService) {
		if d > 0 {
			s.checkTimeout = d
		}
	}
}

// NewAuthService creates an AuthService with a fresh, loading session.
func NewAuthService(api inbound.API, notifier outbound.Notifier, navigator outbound.Navigator, logger *slog.Logger, opts ...AuthOption) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AuthService{
		api:          api,
		state:        session.NewState(),
		notifier:     notifier,
		navigator:    navigator,
		checkTimeout: DefaultCheckTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current session.
func (s *AuthService) Snapshot() session.Snapshot {
	return s.state.Snapshot()
}

// Watch returns the current session and a channel closed on its next change.
func (s *AuthService) Watch() (session.Snapshot, <-chan struct{}) {
	return s.state.Watch()
}

// Mount starts the first auth check in the background, together with a
// watchdog that ends loading if the check has not settled in time.
// The returned unmount function stops the watchdog. It does not abort the
// check, whose result still lands in the session.
func (s *AuthService) Mount(ctx context.Context) (unmount func()) {
	logger := s.loggerFor(ctx)
	settled := make(chan struct{})
	stop := make(chan struct{})

	go func() {
		defer close(settled)
		s.CheckAuth(ctx)
	}()

	go func() {
		timer := time.NewTimer(s.checkTimeout)
		defer timer.Stop()

		select {
		case <-timer.C:
			if s.state.Snapshot().Loading {
				logger.Error(logAuthCheckTimeout, "timeout", s.checkTimeout)
				s.state.SetLoading(false)
			}
		case <-settled:
		case <-stop:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
	}
}

// CheckAuth asks the server who is signed in and records the answer.
// Only one check runs at a time; a caller arriving while one is in flight
// gets the current authentication flag immediately instead of waiting.
func (s *AuthService) CheckAuth(ctx context.Context) bool {
	claimed, authenticated := s.state.TryBeginCheck()
	if !claimed {
		return authenticated
	}
	defer s.state.EndCheck()

	logger := s.loggerFor(ctx)
	resp, err := s.api.Get(ctx, PathMe, inbound.WithoutCache())
	if err != nil {
		logger.Debug("auth check failed", "error", err)
		s.state.Settle(nil)
		return false
	}

	var u user.User
	if err := resp.Decode(&u); err != nil {
		logger.Warn("auth check returned an unreadable user", "error", err)
		s.state.Settle(nil)
		return false
	}
	s.state.Settle(&u)
	return true
}

// Login signs in. On success the user lands on the feed; on failure the
// session is left as it was and the server's message is shown.
func (s *AuthService) Login(ctx context.Context, creds user.Credentials) Result {
	u, err := s.postForUser(ctx, PathLogin, creds)
	if err != nil {
		return s.fail(err, MsgLoginFailed)
	}

	s.state.SetUser(u)
	s.notifier.Success(fmt.Sprintf(msgWelcomeBackFmt, u.FirstName))
	s.navigator.Navigate(routing.PathFeed, outbound.NavigateOptions{})
	return Result{Success: true, User: u}
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, reg user.Registration) Result {
	u, err := s.postForUser(ctx, PathRegister, reg)
	if err != nil {
		return s.fail(err, MsgRegisterFailed)
	}

	s.state.SetUser(u)
	s.notifier.Success(MsgRegistered)
	s.navigator.Navigate(routing.PathFeed, outbound.NavigateOptions{})
	return Result{Success: true, User: u}
}

// Logout signs out. The server call is best effort: whatever it returns,
// the local session ends, cached responses are dropped and the user is
// sent to /login.
func (s *AuthService) Logout(ctx context.Context, showMessage bool) {
	if _, err := s.api.Post(ctx, PathLogout, nil); err != nil {
		s.loggerFor(ctx).Error("logout request failed", "error", err)
	}

	s.state.SetUser(nil)
	s.api.ClearCache()
	if showMessage {
		s.notifier.Success(MsgLoggedOut)
	}
	s.navigator.Navigate(routing.PathLogin, outbound.NavigateOptions{})
}

// UpdateProfile sends the changed fields and replaces the user with the
// server's record. On failure the current user is kept.
func (s *AuthService) UpdateProfile(ctx context.Context, updates user.ProfileUpdate) Result {
	resp, err := s.api.Patch(ctx, PathProfile, updates)
	if err != nil {
		return s.fail(err, MsgUpdateFailed)
	}

	var u user.User
	if err := resp.Decode(&u); err != nil {
		return s.fail(err, MsgUpdateFailed)
	}

	s.state.SetUser(&u)
	s.notifier.Success(MsgProfileUpdated)
	return Result{Success: true, User: &u}
}

// postForUser posts body and reads the {"user": {...}} envelope.
func (s *AuthService) postForUser(ctx context.Context, path string, body any) (*user.User, error) {
	resp, err := s.api.Post(ctx, path, body)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		User *user.User `json:"user"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return nil, err
	}
	if envelope.User == nil {
		return nil, fmt.Errorf("%s: response has no user", path)
	}
	return envelope.User, nil
}

// fail shows the server's detail, or fallback when there is none.
func (s *AuthService) fail(err error, fallback string) Result {
	msg := httpapi.ErrorDetail(err)
	if msg == "" {
		msg = fallback
	}
	s.notifier.Error(msg)
	return Result{Error: msg}
}

func (s *AuthService) loggerFor(ctx context.Context) *slog.Logger {
	if logger := loggerFromContext(ctx); logger != nil {
		return logger
	}
	return s.logger
}
