package common

import (
	"errors"
	"net/http"
)

// Error codes used across the API surface.
const (
	CodeValidation     = "VALIDATION"
	CodeConfiguration  = "CONFIGURATION"
	CodeERPUnavailable = "ERP_UNAVAILABLE"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeBadRequest     = "BAD_REQUEST"
	CodeInternal       = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// ValidationError rejects an action before any state mutates. It never
// reaches the network boundary.
func ValidationError(message string, details any) *AppError {
	return &AppError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusUnprocessableEntity, Details: details}
}

// ConfigurationError rejects an action the backend profile does not permit.
func ConfigurationError(message string) *AppError {
	return &AppError{Code: CodeConfiguration, Message: message, HTTPStatus: http.StatusForbidden}
}

// ExternalError maps an ERP failure to a user-facing message; local state is
// expected to stay intact at the call site.
func ExternalError(message string, err error) *AppError {
	return &AppError{Code: CodeERPUnavailable, Message: message, HTTPStatus: http.StatusBadGateway, Err: err}
}

// NotFoundError reports a missing resource.
func NotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// ConflictError reports a concurrent-action conflict (e.g. double submit).
func ConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, HTTPStatus: http.StatusConflict}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
