// Package ferr holds invocation-level errors: failures that are not tied to
// a source span and therefore don't belong in a diag.Diagnostic — a
// FileResolver that can't read a file, an include nesting past the
// configured depth limit, a cyclic include chain. Per-span problems always
// go through diag.Diagnostic instead.
package ferr

import (
	"errors"
	"fmt"
)

// Error codes for AppError.
const (
	NoError       int = 0
	EResolve      int = 150 // FileResolver failed to resolve or read a path
	EIncludeDepth int = 151 // include nesting exceeded the configured limit
	EIncludeCycle int = 152 // an include chain forms a cycle
	EInternal     int = 153 // invariant violation inside the core
)

func text(code int) string {
	switch code {
	case NoError:
		return "ok"
	case EResolve:
		return "resolve error"
	case EIncludeDepth:
		return "include depth exceeded"
	case EIncludeCycle:
		return "include cycle"
	case EInternal:
		return "internal error"
	}
	return "undefined error"
}

// AppError is an error carrying a stable code and a user-facing message,
// mirroring the teacher's core.AppError.
type AppError interface {
	error
	Code() int
	UserMessage() string
}

type coreError struct {
	error
	code int
	msg  string
}

func (e coreError) Unwrap() error      { return e.error }
func (e coreError) Error() string      { return fmt.Sprintf("[%d] %v", e.code, e.error) }
func (e coreError) Code() int          { return e.code }
func (e coreError) UserMessage() string { return e.msg }

var _ AppError = coreError{}

// New creates an AppError with the given code and a formatted user message.
func New(code int, format string, v ...interface{}) error {
	return coreError{errors.New(text(code)), code, fmt.Sprintf(format, v...)}
}

// Wrap attaches a code and user message to an existing error's chain.
func Wrap(err error, code int, format string, v ...interface{}) error {
	if err == nil {
		err = errors.New(text(code))
	}
	return coreError{err, code, fmt.Sprintf(format, v...)}
}

// CodeOf extracts the AppError code from err, or EInternal if err does not
// carry one, or NoError if err is nil.
func CodeOf(err error) int {
	if err == nil {
		return NoError
	}
	var e AppError
	if errors.As(err, &e) {
		return e.Code()
	}
	return EInternal
}
