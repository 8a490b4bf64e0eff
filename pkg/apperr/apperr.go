// Package apperr is the error taxonomy shared by every service. Handlers translate a Kind
// into an HTTP status through pkg/response.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	Unauthorized
	Forbidden
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string // per-field messages, validation only
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...any) *Error {
	return New(Validation, format, args...)
}

// InvalidField reports a single bad field.
func InvalidField(field, msg string) *Error {
	return &Error{Kind: Validation, Msg: fmt.Sprintf("%s: %s", field, msg), Fields: map[string]string{field: msg}}
}

func NotFoundf(format string, args ...any) *Error {
	return New(NotFound, format, args...)
}

func Forbiddenf(format string, args ...any) *Error {
	return New(Forbidden, format, args...)
}

func Unauthorizedf(format string, args ...any) *Error {
	return New(Unauthorized, format, args...)
}

func Conflictf(format string, args ...any) *Error {
	return New(Conflict, format, args...)
}

// Wrap marks err as Internal with a short description of what failed.
func Wrap(err error, msg string) *Error {
	return &Error{Kind: Internal, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, Internal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
