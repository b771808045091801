package session

import (
	"sync"

	"github.com/brotherhood-social/brotherhood/internal/domain/user"
)

// State is the mutable session record. Thread-safe.
//
// A new State starts loading with no user. Every mutation that changes what
// Snapshot would return wakes the watchers.
type State struct {
	mu              sync.Mutex
	user            *user.User
	loading         bool
	checkInProgress bool
	changed         chan struct{}
}

// NewState creates a State in the initial loading state.
func NewState() *State {
	return &State{
		loading: true,
		changed: make(chan struct{}),
	}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Watch returns the current state and a channel closed on the next change.
func (s *State) Watch() (Snapshot, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), s.changed
}

// SetUser records the signed-in user. A nil user signs out.
func (s *State) SetUser(u *user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u != nil {
		cp := *u
		u = &cp
	}
	s.user = u
	s.notifyLocked()
}

// SetLoading sets the loading flag, waking watchers only if it changed.
func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading == loading {
		return
	}
	s.loading = loading
	s.notifyLocked()
}

// Settle records the outcome of an auth check: the user (or nil) and loading=false.
func (s *State) Settle(u *user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u != nil {
		cp := *u
		u = &cp
	}
	s.user = u
	s.loading = false
	s.notifyLocked()
}

// TryBeginCheck claims the single auth-check slot.
// It returns false, with the current authentication flag, when a check is already running.
func (s *State) TryBeginCheck() (claimed bool, authenticated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkInProgress {
		return false, s.user != nil
	}
	s.checkInProgress = true
	return true, s.user != nil
}

// EndCheck releases the auth-check slot.
func (s *State) EndCheck() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkInProgress = false
}

// CheckInProgress reports whether an auth check holds the slot.
func (s *State) CheckInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkInProgress
}

func (s *State) snapshotLocked() Snapshot {
	var u *user.User
	if s.user != nil {
		cp := *s.user
		u = &cp
	}
	return Snapshot{
		User:            u,
		Loading:         s.loading,
		IsAuthenticated: u != nil,
	}
}

// notifyLocked wakes current watchers and arms a fresh channel.
func (s *State) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}
