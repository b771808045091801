// Package validation sanitizes API payloads and validates user-entered forms.
package validation

import (
	"bytes"
	"reflect"
	"strings"
	"unsafe"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Sanitizer strips active markup from decoded JSON payloads.
//
// Strings go through the bluemonday UGC policy: scripts, styles, event
// handler attributes and javascript: URLs are removed while harmless
// formatting such as <b> or <a href> survives. Quotes in text are left as
// typed, so "O'Brien" stays "O'Brien"; other special characters keep the
// policy's entity escaping. Maps and slices are rebuilt recursively. Other
// values (numbers, booleans, nil) pass through unchanged.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer using the bluemonday UGC policy.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// Sanitize returns a sanitized deep copy of v.
//
// A map or slice reached a second time while walking (a cycle, or the same
// container shared by two parents) is returned as-is instead of being walked
// again, so self-referencing input terminates.
func (s *Sanitizer) Sanitize(v any) any {
	return s.sanitize(v, make(map[unsafe.Pointer]struct{}))
}

// SanitizeString sanitizes a single string.
func (s *Sanitizer) SanitizeString(str string) string {
	if str == "" {
		return str
	}
	return restoreTextQuotes(s.policy.Sanitize(str))
}

var (
	escapedApos  = []byte("&#39;")
	escapedQuote = []byte("&#34;")
)

// restoreTextQuotes undoes the policy's quote escaping in text nodes.
// Attribute values keep it: a bare quote there would end the value.
func restoreTextQuotes(str string) string {
	if !strings.Contains(str, "&#39;") && !strings.Contains(str, "&#34;") {
		return str
	}
	var b strings.Builder
	b.Grow(len(str))
	z := html.NewTokenizer(strings.NewReader(str))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return b.String()
		}
		raw := z.Raw()
		if tt == html.TextToken {
			raw = bytes.ReplaceAll(raw, escapedApos, []byte("'"))
			raw = bytes.ReplaceAll(raw, escapedQuote, []byte(`"`))
		}
		b.Write(raw)
	}
}

func (s *Sanitizer) sanitize(v any, seen map[unsafe.Pointer]struct{}) any {
	switch val := v.(type) {
	case string:
		return s.SanitizeString(val)

	case map[string]any:
		if val == nil {
			return val
		}
		id := reflect.ValueOf(val).UnsafePointer()
		if _, ok := seen[id]; ok {
			return val
		}
		seen[id] = struct{}{}

		result := make(map[string]any, len(val))
		for k, item := range val {
			result[k] = s.sanitize(item, seen)
		}
		return result

	case []any:
		if len(val) == 0 {
			return val
		}
		id := unsafe.Pointer(&val[0])
		if _, ok := seen[id]; ok {
			return val
		}
		seen[id] = struct{}{}

		result := make([]any, len(val))
		for i, item := range val {
			result[i] = s.sanitize(item, seen)
		}
		return result

	default:
		// Numbers, booleans, nil pass through unchanged
		return v
	}
}
