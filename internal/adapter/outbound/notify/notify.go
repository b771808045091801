// Package notify provides Notifier implementations: a terminal writer, a log
// sink and an in-memory recorder.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/brotherhood-social/brotherhood/internal/port/outbound"
)

// Compile-time checks that the notifiers implement outbound.Notifier.
var (
	_ outbound.Notifier = (*WriterNotifier)(nil)
	_ outbound.Notifier = (*LogNotifier)(nil)
	_ outbound.Notifier = (*Recorder)(nil)
	_ outbound.Notifier = Multi(nil)
)

// WriterNotifier prints one line per notice, prefixed by its kind.
// Thread-safe.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a notifier writing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Success prints "✓ msg".
func (n *WriterNotifier) Success(msg string) {
	n.print("✓", msg)
}

// Error prints "✗ msg".
func (n *WriterNotifier) Error(msg string) {
	n.print("✗", msg)
}

func (n *WriterNotifier) print(mark, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "%s %s\n", mark, msg)
}

// LogNotifier forwards notices to a logger. Useful when no terminal is attached.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier logging through logger, or slog.Default() when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Success logs at info level.
func (n *LogNotifier) Success(msg string) {
	n.logger.Info("notice", "kind", KindSuccess, "message", msg)
}

// Error logs at warn level; the error itself is logged by whoever produced it.
func (n *LogNotifier) Error(msg string) {
	n.logger.Warn("notice", "kind", KindError, "message", msg)
}

// Kind distinguishes notices.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notice is one recorded notice.
type Notice struct {
	Kind    Kind
	Message string
}

// Recorder keeps every notice in order. Thread-safe.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Success records a success notice.
func (r *Recorder) Success(msg string) {
	r.add(KindSuccess, msg)
}

// Error records an error notice.
func (r *Recorder) Error(msg string) {
	r.add(KindError, msg)
}

func (r *Recorder) add(kind Kind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Kind: kind, Message: msg})
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Messages returns the messages of the given kind, in order.
func (r *Recorder) Messages(kind Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.notices {
		if n.Kind == kind {
			out = append(out, n.Message)
		}
	}
	return out
}

// Reset forgets every notice.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

// Multi fans a notice out to several notifiers.
type Multi []outbound.Notifier

// Success forwards to every notifier.
func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

// Error forwards to every notifier.
func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}
