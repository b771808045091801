package notify

import (
	"bytes"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
)

func TestWriterNotifier(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n := NewWriterNotifier(&buf)
	n.Success("Profile updated successfully")
	n.Error("Network error. Please check your connection.")

	want := "✓ Profile updated successfully\n✗ Network error. Please check your connection.\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestLogNotifier(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	n := NewLogNotifier(logger)
	n.Error("Session expired. Please login again.")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "kind=error") {
		t.Errorf("log output = %q, want warn record with kind=error", out)
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Success("a")
	r.Error("b")
	r.Error("c")

	if got := r.Messages(KindError); !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("Messages(error) = %v, want [b c]", got)
	}
	if got := r.Messages(KindSuccess); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Messages(success) = %v, want [a]", got)
	}
	if len(r.Notices()) != 3 {
		t.Errorf("len(Notices()) = %d, want 3", len(r.Notices()))
	}

	r.Reset()
	if len(r.Notices()) != 0 {
		t.Error("Reset() should clear notices")
	}
}

func TestRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Error("x")
		}()
	}
	wg.Wait()

	if len(r.Notices()) != 20 {
		t.Errorf("len(Notices()) = %d, want 20", len(r.Notices()))
	}
}

func TestMulti(t *testing.T) {
	t.Parallel()

	a, b := NewRecorder(), NewRecorder()
	m := Multi{a, b}
	m.Success("ok")
	m.Error("bad")

	for _, r := range []*Recorder{a, b} {
		if len(r.Notices()) != 2 {
			t.Errorf("recorder got %d notices, want 2", len(r.Notices()))
		}
	}
}
