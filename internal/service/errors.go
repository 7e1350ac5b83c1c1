package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to status codes with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotFound          = errors.New("not found")
	ErrInUse             = errors.New("in use")
)

// Error carries a human-readable message that is shown to the admin verbatim.
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

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

func conflictError(format string, args ...interface{}) error {
	return newError(ErrConflict, format, args...)
}

func notFoundError(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}
