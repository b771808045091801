// Package navigation provides an in-memory page history implementing outbound.Navigator.
package navigation

import (
	"sync"

	"github.com/brotherhood-social/brotherhood/internal/domain/routing"
	"github.com/brotherhood-social/brotherhood/internal/port/outbound"
)

// Compile-time check that History implements outbound.Navigator.
var _ outbound.Navigator = (*History)(nil)

// History is a stack of visited locations. Thread-safe.
type History struct {
	mu      sync.Mutex
	entries []routing.Location
	seq     uint64
}

// NewHistory creates a history positioned at start.
func NewHistory(start string) *History {
	return &History{entries: []routing.Location{{Pathname: start}}}
}

// Location returns the current location.
func (h *History) Location() routing.Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}

// Navigate pushes path, or replaces the current entry when opts.Replace is set.
func (h *History) Navigate(path string, opts outbound.NavigateOptions) {
	h.mu.Lock()
	defer h.mu.Unlock()

	loc := routing.Location{Pathname: path, State: opts.State}
	if opts.Replace {
		h.entries[len(h.entries)-1] = loc
	} else {
		h.entries = append(h.entries, loc)
	}
	h.seq++
}

// Back pops the current entry. It reports false when already at the first entry.
func (h *History) Back() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 1 {
		return false
	}
	h.entries = h.entries[:len(h.entries)-1]
	h.seq++
	return true
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Seq increments on every navigation; callers compare it to notice moves.
func (h *History) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}
