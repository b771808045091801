package httpapi

import (
	"encoding/binary"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Header names set by the client.
const (
	HeaderRequestID   = "X-Request-ID"
	HeaderCSRFToken   = "X-CSRF-Token"
	HeaderContentType = "Content-Type"
	HeaderRetryAfter  = "Retry-After"

	ContentTypeJSON = "application/json"
)

// Request is one logical API call. The client mutates Retry and RetryCount
// in place as it handles 401 and 5xx responses, so a re-issued request
// carries its history with it.
type Request struct {
	Method string

	// URL is a path relative to the base URL, or an absolute URL.
	URL string

	// Params are appended as the query string.
	Params map[string]string

	// Header adds headers to every dispatch of this request.
	Header map[string]string

	// Body is JSON-encoded unless RawBody is set.
	Body any

	// RawBody is sent as-is with ContentType.
	RawBody []byte

	// ContentType overrides application/json for RawBody.
	ContentType string

	// OnUploadProgress is called as the body is written.
	OnUploadProgress func(loaded, total int64)

	// Retry is set once a 401 has been handled for this request.
	Retry bool

	// RetryCount counts 5xx re-issues so far.
	RetryCount int
}

// Response is a 2xx result, or the failed response inside an *Error.
type Response struct {
	Status int
	Header map[string][]string

	// Data is the decoded JSON body (sanitized on success), the raw text
	// when the body is not JSON, or nil when it is empty.
	Data any

	// Request is the request that produced this response.
	Request *Request
}

// resolveURL joins base and the request URL and appends the query string.
func resolveURL(base, path string, params map[string]string) (string, error) {
	var full string
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		full = path
	} else if path == "" {
		full = base
	} else {
		full = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	}

	if len(params) == 0 {
		return full, nil
	}

	u, err := url.Parse(full)
	if err != nil {
		return "", fmt.Errorf("invalid request url %q: %w", full, err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// newRequestID returns "<epoch-ms>-<9 base36 chars>".
func newRequestID(now time.Time) string {
	id := uuid.New()
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(id[8:]), 36)
	if len(suffix) < 9 {
		suffix = strings.Repeat("0", 9-len(suffix)) + suffix
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix[len(suffix)-9:])
}
