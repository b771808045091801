package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNetwork is returned when no response was received at all.
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized is returned for 401 responses.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned for 403 responses.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited is returned for 429 responses.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer is returned for 5xx responses once the retry budget is spent.
	ErrServer = errors.New("server error")

	// ErrValidation is returned for 422 responses.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")

	// ErrClient is returned for any other non-2xx response.
	ErrClient = errors.New("request rejected")
)

// Kind classifies a failed request.
type Kind int

const (
	KindNetwork Kind = iota
	KindAuthentication
	KindAuthorization
	KindRateLimited
	KindServer
	KindValidation
	KindClient
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	default:
		return "client"
	}
}

// Error is the single rejection type of the client. The response, when one
// arrived, is kept intact so callers can read the server's detail.
type Error struct {
	// Request is the request as last dispatched, retry counters included.
	Request *Request
	// Response is nil for network failures.
	Response *Response
	// Err is the transport error for network failures, or nil.
	Err error
}

// Error returns a one-line description: method, URL, status and server detail.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Request != nil {
		fmt.Fprintf(&b, "%s %s: ", e.Request.Method, e.Request.URL)
	}
	if e.Response == nil {
		b.WriteString("network error")
		if e.Err != nil {
			fmt.Fprintf(&b, ": %v", e.Err)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "%d %s", e.Response.Status, http.StatusText(e.Response.Status))
	if detail := detailMessage(e.Response.Data); detail != "" {
		fmt.Fprintf(&b, ": %s", detail)
	}
	return b.String()
}

// Unwrap returns the underlying transport error.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status, or 0 when no response arrived.
func (e *Error) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.Status
}

// Kind classifies the failure.
func (e *Error) Kind() Kind {
	status := e.StatusCode()
	switch {
	case e.Response == nil:
		return KindNetwork
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServer
	case status == http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindClient
	}
}

// Is reports whether this error matches the target sentinel.
// It supports errors.Is(err, ErrUnauthorized) and friends.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind() == KindNetwork
	case ErrUnauthorized:
		return e.Kind() == KindAuthentication
	case ErrForbidden:
		return e.Kind() == KindAuthorization
	case ErrRateLimited:
		return e.Kind() == KindRateLimited
	case ErrServer:
		return e.Kind() == KindServer
	case ErrValidation:
		return e.Kind() == KindValidation
	case ErrNotFound:
		return e.StatusCode() == http.StatusNotFound
	case ErrClient:
		return e.Kind() == KindClient
	}
	return false
}

// ValidationEntry is one item of a 422 detail array.
type ValidationEntry struct {
	Loc []string
	Msg string
}

// String formats the entry as "loc.joined: msg".
func (v ValidationEntry) String() string {
	return strings.Join(v.Loc, ".") + ": " + v.Msg
}

// ErrorDetail extracts the server's detail from err: the string itself, or
// the validation entries joined with "; ". It returns "" when err carries no detail.
func ErrorDetail(err error) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Response == nil {
		return ""
	}
	return detailMessage(apiErr.Response.Data)
}

// ValidationEntries returns the entries of a 422-style detail array in err.
func ValidationEntries(err error) []ValidationEntry {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Response == nil {
		return nil
	}
	return validationEntries(apiErr.Response.Data)
}

func detailMessage(data any) string {
	body, ok := data.(map[string]any)
	if !ok {
		return ""
	}
	switch detail := body["detail"].(type) {
	case string:
		return detail
	case []any:
		entries := validationEntries(data)
		msgs := make([]string, len(entries))
		for i, entry := range entries {
			msgs[i] = entry.String()
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func validationEntries(data any) []ValidationEntry {
	body, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	items, ok := body["detail"].([]any)
	if !ok {
		return nil
	}

	entries := make([]ValidationEntry, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := ValidationEntry{}
		entry.Msg, _ = m["msg"].(string)
		if locs, ok := m["loc"].([]any); ok {
			for _, l := range locs {
				entry.Loc = append(entry.Loc, fmt.Sprint(l))
			}
		}
		entries = append(entries, entry)
	}
	return entries
}
