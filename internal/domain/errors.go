// Package domain holds the nutrition and training model: self-validating value
// objects, entities built through constructors, and the aggregates that enforce
// rules over their children. Nothing in here performs I/O.
package domain

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error kind.
type Code string

const (
	CodeValidation    Code = "VALIDATION"
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeAuth          Code = "AUTH"
	CodePermission    Code = "PERMISSION"
	CodeRateLimit     Code = "RATE_LIMIT"
	CodeConflict      Code = "CONFLICT"
	CodeInfra         Code = "INFRA"
)

// Sentinels for errors.Is. A sentinel matches any *Error carrying the same code.
var (
	ErrValidation    = &Error{Code: CodeValidation}
	ErrNotFound      = &Error{Code: CodeNotFound}
	ErrAlreadyExists = &Error{Code: CodeAlreadyExists}
	ErrAuth          = &Error{Code: CodeAuth}
	ErrPermission    = &Error{Code: CodePermission}
	ErrRateLimit     = &Error{Code: CodeRateLimit}
	ErrConflict      = &Error{Code: CodeConflict}
	ErrInfra         = &Error{Code: CodeInfra}
)

type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" {
		return t == e
	}
	return t.Code == e.Code
}

// WithDetail returns the error with key set in Details.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *Error {
	return newError(CodeValidation, format, args...)
}

func NotFoundf(format string, args ...any) *Error {
	return newError(CodeNotFound, format, args...)
}

func AlreadyExistsf(format string, args ...any) *Error {
	return newError(CodeAlreadyExists, format, args...)
}

func Authf(format string, args ...any) *Error {
	return newError(CodeAuth, format, args...)
}

func Permissionf(format string, args ...any) *Error {
	return newError(CodePermission, format, args...)
}

func Conflictf(format string, args ...any) *Error {
	return newError(CodeConflict, format, args...)
}

func RateLimitf(format string, args ...any) *Error {
	return newError(CodeRateLimit, format, args...)
}

// Infra wraps an infrastructure failure so callers can still reach cause.
func Infra(message string, cause error) *Error {
	return &Error{Code: CodeInfra, Message: message, Cause: cause}
}

// CodeOf reports the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
