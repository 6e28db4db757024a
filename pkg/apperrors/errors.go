// Package apperrors defines the error taxonomy shared by the catalog service
// and its HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// CodeInvalidInput marks malformed or missing request input.
	CodeInvalidInput = "INVALID_INPUT"
	// CodeAlreadyExists marks a create against an id that is taken.
	CodeAlreadyExists = "ALREADY_EXISTS"
	// CodeNotFound marks a missing resource.
	CodeNotFound = "NOT_FOUND"
	// CodeStoreFailure marks a storage adapter or transport failure.
	CodeStoreFailure = "STORE_FAILURE"
)

// AppError carries a stable code, a client-facing message and the cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on code so sentinel values work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func Validation(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func Conflict(message string) *AppError {
	return New(CodeAlreadyExists, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

// Store wraps an adapter failure. The message names the operation, the cause
// stays in Err and is never sent to clients.
func Store(err error, op string) *AppError {
	return Wrap(err, CodeStoreFailure, op+" failed")
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput  = New(CodeInvalidInput, "invalid input")
	ErrAlreadyExists = New(CodeAlreadyExists, "already exists")
	ErrNotFound      = New(CodeNotFound, "not found")
	ErrStoreFailure  = New(CodeStoreFailure, "store failure")
)

func codeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool      { return codeOf(err) == CodeNotFound }
func IsAlreadyExists(err error) bool { return codeOf(err) == CodeAlreadyExists }
func IsInvalidInput(err error) bool  { return codeOf(err) == CodeInvalidInput }
func IsStoreFailure(err error) bool  { return codeOf(err) == CodeStoreFailure }

// HTTPStatus maps an error to its response status. Unclassified errors are
// treated as internal failures.
func HTTPStatus(err error) int {
	switch codeOf(err) {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to put in a response body.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != CodeStoreFailure {
		return appErr.Message
	}
	return "Internal server error"
}
