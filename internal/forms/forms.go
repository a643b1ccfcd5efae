// Package forms validates user input before anything is sent to the backend.
// Every failure is a *Error carrying the message shown to the user; the
// first failing rule wins, the way a form shows one message at a time.
package forms

import (
	"errors"
	"fmt"
	"strings"
)

// Error describes a single client-side validation failure.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func anyBlank(values ...string) bool {
	for _, v := range values {
		if blank(v) {
			return true
		}
	}
	return false
}
