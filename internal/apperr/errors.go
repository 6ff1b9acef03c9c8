package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Callers match them with errors.Is.
var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInsufficientRole   = errors.New("insufficient role")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrConflict           = errors.New("conflict")
	ErrInvalid            = errors.New("invalid input")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// Error attaches a human-readable message to one of the kinds above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// New returns an error of the given kind with msg as its message.
func New(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf is New with formatting.
func Newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Invalidf reports an input validation failure.
func Invalidf(format string, args ...any) error {
	return Newf(ErrInvalid, format, args...)
}

// RoleError is returned when a principal holds a role outside the required set.
type RoleError struct {
	Actual   string
	Required []string
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("access denied: role %q is not one of [%s]", e.Actual, strings.Join(e.Required, ", "))
}

func (e *RoleError) Unwrap() error { return ErrInsufficientRole }

// TransitionError is returned when an order status change is not in the transition table.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Message returns the text that is safe to show to a client, and false for errors
// that do not belong to any known kind.
func Message(err error) (string, bool) {
	var (
		ae *Error
		re *RoleError
		te *TransitionError
	)
	switch {
	case errors.As(err, &ae):
		return ae.Msg, true
	case errors.As(err, &re):
		return re.Error(), true
	case errors.As(err, &te):
		return te.Error(), true
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind.Error(), true
		}
	}
	return "", false
}

var kinds = [...]error{
	ErrUnauthenticated, ErrInvalidCredentials, ErrInsufficientRole, ErrForbidden,
	ErrNotFound, ErrAlreadyExists, ErrConflict, ErrInvalid, ErrInvalidTransition,
}
