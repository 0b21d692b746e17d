// Package apperr pairs sentinel error kinds with the message returned to API clients.
package apperr

import (
	"errors"
	"fmt"
)

// Error carries a client-facing message and unwraps to its kind, so callers
// can keep matching with errors.Is against package sentinels.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New returns an *Error of the given kind with a formatted message.
func New(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Message returns the message of the first *Error in err's chain, or fallback.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}
