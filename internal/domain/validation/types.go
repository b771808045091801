package validation

import "strings"

// FieldError is a user-facing validation failure for one form field.
type FieldError struct {
	// Field is the JSON name of the field (e.g. "first_name").
	Field string

	// Message is safe to show to the user as-is.
	Message string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// FieldErrors collects every failing field of a form, in struct order.
type FieldErrors []FieldError

// Error joins all messages with "; ".
func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Get returns the message for field, or "" when the field passed.
func (e FieldErrors) Get(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}
