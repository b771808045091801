package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brotherhood-social/brotherhood/internal/domain/user"
	"github.com/brotherhood-social/brotherhood/internal/domain/validation"
	"github.com/brotherhood-social/brotherhood/internal/port/inbound"
	"github.com/brotherhood-social/brotherhood/internal/port/outbound"
	"github.com/brotherhood-social/brotherhood/internal/service"
)

// command is one shell verb.
type command struct {
	name  string
	usage string
	help  string
	run   func(ctx context.Context, s *Shell, args []string, rest string) error
}

func commandTable() map[string]*command {
	cmds := []*command{
		{name: "open", usage: "open <path>", help: "navigate to a page", run: cmdOpen},
		{name: "back", usage: "back", help: "go to the previous page", run: cmdBack},
		{name: "login", usage: "login <email> <password>", help: "sign in", run: cmdLogin},
		{name: "register", usage: "register <email> <password> <first> <last> [yyyy-mm-dd]", help: "create an account", run: cmdRegister},
		{name: "logout", usage: "logout", help: "sign out", run: cmdLogout},
		{name: "me", usage: "me", help: "re-check the session with the server", run: cmdMe},
		{name: "profile", usage: "profile field=value...", help: "update first_name, last_name, date_of_birth, phone or website", run: cmdProfile},
		{name: "get", usage: "get <path> [key=value...] [--no-cache]", help: "fetch JSON from the API", run: cmdGet},
		{name: "post", usage: "post <path> <json>", help: "send JSON to the API", run: cmdSend("POST")},
		{name: "put", usage: "put <path> <json>", help: "replace a resource", run: cmdSend("PUT")},
		{name: "patch", usage: "patch <path> <json>", help: "change part of a resource", run: cmdSend("PATCH")},
		{name: "delete", usage: "delete <path>", help: "remove a resource", run: cmdDelete},
		{name: "upload", usage: "upload <path> <field> <file>", help: "upload an image", run: cmdUpload},
		{name: "cache", usage: "cache clear", help: "drop cached responses", run: cmdCache},
		{name: "session", usage: "session", help: "show the session state", run: cmdSession},
		{name: "strength", usage: "strength <password>", help: "rate a password", run: cmdStrength},
		{name: "help", usage: "help", help: "list commands", run: cmdHelp},
		{name: "quit", usage: "quit", help: "leave the shell", run: cmdQuit},
	}
	table := make(map[string]*command, len(cmds)+1)
	for _, c := range cmds {
		table[c.name] = c
	}
	table["exit"] = table["quit"]
	return table
}

func usageError(s *Shell, name string) error {
	return fmt.Errorf("usage: %s", s.commands[name].usage)
}

func cmdOpen(_ context.Context, s *Shell, args []string, _ string) error {
	if len(args) != 1 {
		return usageError(s, "open")
	}
	path := args[0]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	s.history.Navigate(path, outbound.NavigateOptions{})
	return nil
}

func cmdBack(_ context.Context, s *Shell, _ []string, _ string) error {
	if !s.history.Back() {
		return errors.New("no previous page")
	}
	return nil
}

func cmdLogin(ctx context.Context, s *Shell, args []string, _ string) error {
	if len(args) != 2 {
		return usageError(s, "login")
	}
	creds := user.Credentials{Email: args[0], Password: args[1]}
	if err := s.validator.ValidateCredentials(creds); err != nil {
		return err
	}
	return resultError(s.auth.Login(ctx, creds))
}

func cmdRegister(ctx context.Context, s *Shell, args []string, _ string) error {
	if len(args) < 4 || len(args) > 5 {
		return usageError(s, "register")
	}
	reg := user.Registration{
		Email:     args[0],
		Password:  args[1],
		FirstName: args[2],
		LastName:  args[3],
	}
	if len(args) == 5 {
		reg.DateOfBirth = args[4]
	}
	if err := s.validator.ValidateRegistration(reg); err != nil {
		return err
	}
	return resultError(s.auth.Register(ctx, reg))
}

func cmdLogout(ctx context.Context, s *Shell, _ []string, _ string) error {
	s.auth.Logout(ctx, true)
	return nil
}

func cmdMe(ctx context.Context, s *Shell, _ []string, _ string) error {
	if s.auth.CheckAuth(ctx) {
		fmt.Fprintf(s.out, "Signed in as %s\n", user.FullName(s.auth.Snapshot().User))
	} else {
		fmt.Fprintln(s.out, "Not signed in")
	}
	return nil
}

func cmdProfile(ctx context.Context, s *Shell, args []string, _ string) error {
	var update user.ProfileUpdate
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return usageError(s, "profile")
		}
		switch key {
		case "first_name":
			update.FirstName = value
		case "last_name":
			update.LastName = value
		case "date_of_birth":
			update.DateOfBirth = value
		case "phone":
			update.Phone = value
		case "website":
			update.Website = value
		default:
			return fmt.Errorf("unknown profile field %q", key)
		}
	}
	if err := s.validator.ValidateProfileUpdate(update); err != nil {
		return err
	}
	return resultError(s.auth.UpdateProfile(ctx, update))
}

func cmdGet(ctx context.Context, s *Shell, args []string, _ string) error {
	if len(args) == 0 {
		return usageError(s, "get")
	}
	var opts []inbound.RequestOption
	params := make(map[string]string)
	for _, arg := range args[1:] {
		if arg == "--no-cache" {
			opts = append(opts, inbound.WithoutCache())
			continue
		}
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return usageError(s, "get")
		}
		params[key] = value
	}
	if len(params) > 0 {
		opts = append(opts, inbound.WithParams(params))
	}

	resp, err := s.queries.Query(ctx, func(ctx context.Context) (*inbound.Response, error) {
		return s.api.Get(ctx, args[0], opts...)
	})
	if err != nil {
		return err
	}
	return s.printResponse(resp)
}

func cmdSend(method string) func(context.Context, *Shell, []string, string) error {
	name := strings.ToLower(method)
	return func(ctx context.Context, s *Shell, args []string, rest string) error {
		if len(args) < 2 {
			return usageError(s, name)
		}
		var body any
		if err := json.Unmarshal([]byte(rest), &body); err != nil {
			return fmt.Errorf("invalid JSON body: %w", err)
		}

		resp, err := s.queries.Mutate(ctx, func(ctx context.Context) (*inbound.Response, error) {
			switch method {
			case "PUT":
				return s.api.Put(ctx, args[0], body)
			case "PATCH":
				return s.api.Patch(ctx, args[0], body)
			default:
				return s.api.Post(ctx, args[0], body)
			}
		})
		if err != nil {
			return shownError{msg: err.Error()}
		}
		return s.printResponse(resp)
	}
}

func cmdDelete(ctx context.Context, s *Shell, args []string, _ string) error {
	if len(args) != 1 {
		return usageError(s, "delete")
	}
	resp, err := s.queries.Mutate(ctx, func(ctx context.Context) (*inbound.Response, error) {
		return s.api.Delete(ctx, args[0])
	})
	if err != nil {
		return shownError{msg: err.Error()}
	}
	return s.printResponse(resp)
}

func cmdUpload(ctx context.Context, s *Shell, args []string, _ string) error {
	if len(args) != 3 {
		return usageError(s, "upload")
	}
	path, field, name := args[0], args[1], args[2]

	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", name, err)
	}

	base := filepath.Base(name)
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(base)))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if msg := validation.CheckFile(base, contentType, info.Size(), validation.DefaultImageRules); msg != "" {
		return errors.New(msg)
	}

	last := -1
	resp, err := s.api.Upload(ctx, path, inbound.UploadForm{
		Files: []inbound.UploadFile{{Field: field, Name: base, ContentType: contentType, Content: f}},
	}, func(percent int) {
		// Print each ten percent step once.
		if step := percent / 10; step > last {
			last = step
			fmt.Fprintf(s.out, "uploading... %d%%\n", percent)
		}
	})
	if err != nil {
		return err
	}
	return s.printResponse(resp)
}

func cmdCache(_ context.Context, s *Shell, args []string, _ string) error {
	if len(args) != 1 || args[0] != "clear" {
		return usageError(s, "cache")
	}
	s.api.ClearCache()
	fmt.Fprintln(s.out, "Cache cleared")
	return nil
}

func cmdSession(_ context.Context, s *Shell, _ []string, _ string) error {
	snap := s.auth.Snapshot()
	fmt.Fprintf(s.out, "status: %s\n", snap.Status())
	fmt.Fprintf(s.out, "location: %s\n", s.history.Location().Pathname)
	if snap.User != nil {
		fmt.Fprintf(s.out, "user: %s <%s>\n", user.FullName(snap.User), snap.User.Email)
	}
	return nil
}

func cmdStrength(_ context.Context, s *Shell, args []string, _ string) error {
	if len(args) == 0 {
		return usageError(s, "strength")
	}
	st := validation.PasswordStrength(strings.Join(args, " "))
	fmt.Fprintf(s.out, "%s (%d/7, %.0f%%)\n", st.Level, st.Score, st.Percentage)
	for _, f := range st.Feedback {
		fmt.Fprintf(s.out, "  - %s\n", f)
	}
	return nil
}

func cmdHelp(_ context.Context, s *Shell, _ []string, _ string) error {
	names := make([]string, 0, len(s.commands))
	for name, c := range s.commands {
		if name == c.name {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		c := s.commands[name]
		fmt.Fprintf(s.out, "  %-58s %s\n", c.usage, c.help)
	}
	return nil
}

func cmdQuit(context.Context, *Shell, []string, string) error {
	return errQuit
}

// resultError reports a failed auth Result. The user has already been
// notified, so the error is marked as shown.
func resultError(r service.Result) error {
	if r.Success {
		return nil
	}
	return shownError{msg: r.Error}
}

// shownError is a command failure the user has already seen as a notice.
type shownError struct {
	msg string
}

func (e shownError) Error() string { return e.msg }

func (s *Shell) printResponse(resp *inbound.Response) error {
	if resp.Cached {
		fmt.Fprintln(s.out, "(cached)")
	}
	if resp.Data == nil {
		fmt.Fprintf(s.out, "%d (no content)\n", resp.Status)
		return nil
	}
	if text, ok := resp.Data.(string); ok {
		fmt.Fprintln(s.out, text)
		return nil
	}
	// Sanitized content may keep safe markup; print it as-is, not as \u003c.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp.Data); err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	_, err := s.out.Write(buf.Bytes())
	return err
}
