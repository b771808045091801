// Package shell provides a line-oriented terminal front end for the client core.
//
// Each line is one command. Commands that move the user (open, login,
// logout, a 401 redirect) are followed by a render of the new location,
// which is resolved through the route guard the same way a page would be.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/navigation"
	"github.com/brotherhood-social/brotherhood/internal/ctxkey"
	"github.com/brotherhood-social/brotherhood/internal/domain/routing"
	"github.com/brotherhood-social/brotherhood/internal/domain/validation"
	"github.com/brotherhood-social/brotherhood/internal/port/inbound"
	"github.com/brotherhood-social/brotherhood/internal/service"
)

// maxRedirects bounds the guard redirects followed for one render.
const maxRedirects = 8

// Prompt is printed before each command when the shell is interactive.
const Prompt = "brotherhood> "

// errQuit ends Run without an error.
var errQuit = errors.New("quit")

// Deps are the services the shell drives.
type Deps struct {
	Auth      *service.AuthService
	API       inbound.API
	Queries   *service.QueryService
	Guard     *routing.Guard
	History   *navigation.History
	Validator *validation.FormValidator
	Logger    *slog.Logger
}

// Shell reads commands from in and writes pages and results to out.
type Shell struct {
	in  io.Reader
	out io.Writer

	auth      *service.AuthService
	api       inbound.API
	queries   *service.QueryService
	guard     *routing.Guard
	history   *navigation.History
	validator *validation.FormValidator
	logger    *slog.Logger

	prompt   bool
	commands map[string]*command
	rendered uint64
}

// Option configures a Shell.
type Option func(*Shell)

// WithPrompt prints Prompt before each command.
func WithPrompt(enabled bool) Option {
	return func(s *Shell) {
		s.prompt = enabled
	}
}

// New creates a Shell over in and out.
func New(in io.Reader, out io.Writer, deps Deps, opts ...Option) *Shell {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	validator := deps.Validator
	if validator == nil {
		validator = validation.NewFormValidator()
	}
	s := &Shell{
		in:        in,
		out:       out,
		auth:      deps.Auth,
		api:       deps.API,
		queries:   deps.Queries,
		guard:     deps.Guard,
		history:   deps.History,
		validator: validator,
		logger:    logger,
	}
	s.commands = commandTable()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run mounts the session, renders the start page and executes commands until
// in is exhausted, a quit command is read, or ctx is cancelled.
func (s *Shell) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unmount := s.auth.Mount(ctx)
	defer unmount()

	s.render(ctx)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		if s.prompt {
			fmt.Fprint(s.out, Prompt)
		}
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read command: %w", err)
					}
				default:
				}
				return nil
			}
			if err := s.Exec(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				var shown shownError
				if !errors.As(err, &shown) {
					fmt.Fprintf(s.out, "error: %v\n", err)
				}
			}
		}
	}
}

// Exec runs one command line and renders the location if it changed.
// A quit command returns errQuit.
func (s *Shell) Exec(ctx context.Context, line string) error {
	name, args, rest := splitCommand(line)
	if name == "" || strings.HasPrefix(name, "#") {
		return nil
	}

	cmd, ok := s.commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", name)
	}

	logger := s.logger.With("command", name)
	ctx = context.WithValue(ctx, ctxkey.LoggerKey{}, logger)
	logger.Debug("command started", "args", len(args))

	err := cmd.run(ctx, s, args, rest)
	if errors.Is(err, errQuit) {
		return err
	}
	if s.history.Seq() != s.rendered {
		s.render(ctx)
	}
	return err
}

// splitCommand returns the command name, its whitespace-separated arguments
// and the raw text after the first argument.
func splitCommand(line string) (name string, args []string, rest string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, ""
	}
	name = strings.ToLower(fields[0])
	args = fields[1:]
	if len(args) > 0 {
		trimmed := strings.TrimSpace(line)
		after := strings.TrimSpace(trimmed[len(fields[0]):])
		rest = strings.TrimSpace(after[len(args[0]):])
	}
	return name, args, rest
}
