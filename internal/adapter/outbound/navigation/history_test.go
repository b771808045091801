package navigation

import (
	"testing"

	"github.com/brotherhood-social/brotherhood/internal/domain/routing"
	"github.com/brotherhood-social/brotherhood/internal/port/outbound"
)

func TestHistory_PushAndBack(t *testing.T) {
	t.Parallel()

	h := NewHistory("/")
	h.Navigate("/feed", outbound.NavigateOptions{})
	h.Navigate("/profile", outbound.NavigateOptions{})

	if got := h.Location().Pathname; got != "/profile" {
		t.Errorf("Location() = %q, want /profile", got)
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}

	if !h.Back() {
		t.Fatal("Back() = false, want true")
	}
	if got := h.Location().Pathname; got != "/feed" {
		t.Errorf("after Back, Location() = %q, want /feed", got)
	}

	h.Back()
	if h.Back() {
		t.Error("Back() at first entry should return false")
	}
}

func TestHistory_Replace(t *testing.T) {
	t.Parallel()

	h := NewHistory("/feed")
	state := &routing.LocationState{From: &routing.Location{Pathname: "/feed"}}
	h.Navigate("/login", outbound.NavigateOptions{Replace: true, State: state})

	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after replace", h.Len())
	}
	loc := h.Location()
	if loc.Pathname != "/login" || loc.FromPath() != "/feed" {
		t.Errorf("Location() = %+v, want /login from /feed", loc)
	}
}

func TestHistory_Seq(t *testing.T) {
	t.Parallel()

	h := NewHistory("/")
	before := h.Seq()
	h.Navigate("/feed", outbound.NavigateOptions{Replace: true})
	if h.Seq() == before {
		t.Error("Seq() should change after Navigate")
	}
}
