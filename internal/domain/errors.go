package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindNotFound            ErrorKind = "not_found"
	KindReference           ErrorKind = "reference"
	KindConcurrencyConflict ErrorKind = "concurrency_conflict"
	KindAuthorization       ErrorKind = "authorization"
)

// Error is the error type every core operation returns for expected failures.
// Match it with errors.Is against the Err* sentinels.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrReference           = &Error{Kind: KindReference}
	ErrConcurrencyConflict = &Error{Kind: KindConcurrencyConflict}
	ErrAuthorization       = &Error{Kind: KindAuthorization}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(resource string, id any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %v not found", resource, id)}
}

func NewReferenceError(message string, cause error) *Error {
	return &Error{Kind: KindReference, Message: message, Cause: cause}
}

func NewConcurrencyConflict(message string, cause error) *Error {
	return &Error{Kind: KindConcurrencyConflict, Message: message, Cause: cause}
}

func NewAuthorizationError(message string) *Error {
	if message == "" {
		message = "authentication required"
	}
	return &Error{Kind: KindAuthorization, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
