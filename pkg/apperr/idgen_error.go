package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"idgen_server/pkg/snowflake"
)

// Error codes
const (
	// Auth errors
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeForbidden    = "FORBIDDEN"

	// Validation errors
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInvalidInput     = "INVALID_INPUT"

	// Resource errors
	CodeNotFound = "NOT_FOUND"
	CodeConflict = "CONFLICT"

	// Generator errors
	CodeInvalidWorkerID = "INVALID_WORKER_ID"
	CodeClockRegression = "CLOCK_REGRESSION"
	CodeClockOutOfRange = "CLOCK_OUT_OF_RANGE"

	// Internal errors
	CodeInternalError = "INTERNAL_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
	CodeRateLimited   = "RATE_LIMITED"
	CodeUnavailable   = "SERVICE_UNAVAILABLE"
)

// AppError represents a structured application error
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
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

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// HTTPStatus returns the HTTP status code
func (e *AppError) HTTPStatus() int {
	return e.Status
}

func New(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func InvalidToken(message string) *AppError {
	return New(CodeInvalidToken, message, http.StatusUnauthorized)
}

func InvalidInput(field, reason string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf("invalid input for '%s': %s", field, reason),
		Status:  http.StatusBadRequest,
		Details: map[string]any{"field": field},
	}
}

func InternalWithError(err error) *AppError {
	return Wrap(err, CodeInternalError, "internal server error", http.StatusInternalServerError)
}

// ConfigError marks a configuration problem found at startup.
func ConfigError(err error) *AppError {
	return Wrap(err, CodeConfigError, "invalid configuration", http.StatusInternalServerError)
}

func RateLimited(retryAfterSec int) *AppError {
	return New(CodeRateLimited, "too many requests", http.StatusTooManyRequests).
		WithDetail("retry_after", retryAfterSec)
}

// FromGenerator maps an error returned by the snowflake package.
// Clock regressions become 503 so callers treat them as a hard dependency
// failure; nothing is retried here.
func FromGenerator(err error) *AppError {
	if err == nil {
		return nil
	}

	var regErr *snowflake.ClockRegressionError
	switch {
	case errors.As(err, &regErr):
		return Wrap(err, CodeClockRegression, "clock moved backwards, refusing to generate ID", http.StatusServiceUnavailable).
			WithDetail("offset_ms", regErr.Offset.Milliseconds()).
			WithDetail("retried", regErr.Retried)
	case errors.Is(err, snowflake.ErrClockMovedBack):
		return Wrap(err, CodeClockRegression, "clock moved backwards, refusing to generate ID", http.StatusServiceUnavailable)
	case errors.Is(err, snowflake.ErrClockOutOfRange):
		return Wrap(err, CodeClockOutOfRange, "system clock outside the ID timestamp range", http.StatusServiceUnavailable)
	case errors.Is(err, snowflake.ErrInvalidWorkerID):
		return Wrap(err, CodeInvalidWorkerID, "worker ID must be between 0 and 1023", http.StatusInternalServerError)
	default:
		return InternalWithError(err)
	}
}

// AsAppError returns the AppError in err's chain, or wraps err as an
// internal error.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalWithError(err)
}
