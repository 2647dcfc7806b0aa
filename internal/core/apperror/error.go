// Package apperror classifies failures of the sales pipeline into stable
// codes and HTTP statuses. Handlers render AppError as {code, message, details}.
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Source and server errors (5xx)
	CodeInternal    = "INTERNAL_ERROR"
	CodeUnavailable = "SOURCE_UNAVAILABLE"
	CodeTimeout     = "SOURCE_TIMEOUT"

	// Caller errors (400)
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidArgument = "INVALID_ARGUMENT"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the service.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field, operator, source, ...)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewValidation reports malformed transport input: a body or query string
// that could not be bound.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidArgument reports a filter specification that breaks its contract,
// such as a missing date range or a value of the wrong type.
func NewInvalidArgument(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidArgument,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidField is NewInvalidArgument with details.field set.
func NewInvalidField(field, message string) *AppError {
	return NewInvalidArgument(message).WithDetail("field", field)
}

func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewUnavailable wraps a failure of the transaction source (database, file).
// A deadline hit while reading becomes SOURCE_TIMEOUT with 504.
func NewUnavailable(source string, err error) *AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:       CodeTimeout,
			Message:    fmt.Sprintf("%s did not answer in time", source),
			HTTPStatus: http.StatusGatewayTimeout,
			Details:    map[string]any{"source": source},
			Err:        err,
		}
	}
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is unavailable", source),
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"source": source},
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func hasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsInvalidArgument checks if error is CodeInvalidArgument
func IsInvalidArgument(err error) bool { return hasCode(err, CodeInvalidArgument) }

// IsUnavailable reports whether the transaction source failed or timed out.
func IsUnavailable(err error) bool {
	return hasCode(err, CodeUnavailable) || hasCode(err, CodeTimeout)
}
