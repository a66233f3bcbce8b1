package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrStateConflict indicates that the requested transition is not allowed from the current state.
// Callers must re-fetch the resource before trying again.
var ErrStateConflict = errors.New("invalid state transition")

// ErrConflict indicates a concurrency conflict (lock timeout, deadlock, version mismatch).
// The whole unit of work may be retried.
var ErrConflict = errors.New("concurrent modification conflict")

// ErrPeriodGating indicates that a posting date falls outside an open accounting period.
var ErrPeriodGating = errors.New("posting date not accepted by accounting period")

// ErrInternal indicates an unexpected infrastructure failure.
var ErrInternal = errors.New("internal error")

// AppError wraps an infrastructure error with an HTTP-ish status code and a safe message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// DomainError is a named business-rule failure. It matches itself by identity
// and its category (Kind) through errors.Is.
type DomainError struct {
	Code    string
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

// NewDomainError creates a DomainError of the given category.
func NewDomainError(kind error, code, message string) *DomainError {
	return &DomainError{Code: code, Kind: kind, Message: message}
}

// CodeOf returns the domain error code carried by err, or "" if there is none.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
