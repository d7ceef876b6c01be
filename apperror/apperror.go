// Package apperror defines the error taxonomy shared by services and HTTP handlers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeNotFound           Code = "RESOURCE_NOT_FOUND"
	CodeSchedulingConflict Code = "SCHEDULING_CONFLICT"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeResourceInUse      Code = "RESOURCE_IN_USE"
	CodeDuplicateName      Code = "DUPLICATE_NAME"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeInternal           Code = "INTERNAL"
)

// Sentinels for errors.Is; matching is by code only.
var (
	ErrValidation         = New(CodeValidation, "validation failed")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrSchedulingConflict = New(CodeSchedulingConflict, "requested time overlaps an existing booking")
	ErrInvalidState       = New(CodeInvalidState, "operation not allowed in the current state")
	ErrResourceInUse      = New(CodeResourceInUse, "resource is in use")
	ErrDuplicateName      = New(CodeDuplicateName, "name already exists")
	ErrUnauthorized       = New(CodeUnauthorized, "authentication required")
	ErrForbidden          = New(CodeForbidden, "insufficient permissions")
	ErrInternal           = New(CodeInternal, "internal error")
)

// Error carries a taxonomy code, a message safe to show to the caller and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause; the cause is logged but never returned to the caller.
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func Validation(message string) *Error { return New(CodeValidation, message) }

func NotFound(what string) *Error { return Newf(CodeNotFound, "%s not found", what) }

func InvalidState(message string) *Error { return New(CodeInvalidState, message) }

func Forbidden(message string) *Error { return New(CodeForbidden, message) }

func Internal(err error, message string) *Error { return Wrap(CodeInternal, err, message) }

// As extracts an *Error; anything else is reported as an internal failure.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err, "internal server error")
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return As(err).Code
}

// Expected reports outcomes the user can recover from, as opposed to defects.
func Expected(err error) bool {
	code := CodeOf(err)
	return code != "" && code != CodeInternal
}

func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeSchedulingConflict, CodeInvalidState, CodeResourceInUse, CodeDuplicateName:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
