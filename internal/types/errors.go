package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Pipeline and handler code MUST use these constants
// instead of hardcoded strings.
const (
	// Pipeline taxonomy. These four codes drive the scheduler's transition
	// out of RUNNING: location/fetch failures are retryable, notify failures
	// are logged and dropped, internal errors abort the cycle.
	ErrCodeLocationUnavailable ErrorCode = "location_unavailable"
	ErrCodeFetchFailed         ErrorCode = "fetch_failed"
	ErrCodeNotifyFailed        ErrorCode = "notify_failed"
	ErrCodeInternal            ErrorCode = "internal_error"

	// Validation (400)
	ErrCodeValidationInvalidLat      ErrorCode = "validation_invalid_latitude"
	ErrCodeValidationInvalidLon      ErrorCode = "validation_invalid_longitude"
	ErrCodeValidationInvalidWindow   ErrorCode = "validation_window_invalid"
	ErrCodeValidationThresholdRange  ErrorCode = "validation_threshold_out_of_range"
	ErrCodeValidationMissingField    ErrorCode = "validation_missing_required_field"
	ErrCodeValidationMalformedBody   ErrorCode = "validation_malformed_body"

	// Conflict (409)
	ErrCodeConflictCycleRunning ErrorCode = "conflict_cycle_running"

	// Not Found (404)
	ErrCodeNotFoundTask ErrorCode = "not_found_task"

	// State store (500)
	ErrCodeStateStore ErrorCode = "state_store_error"

	// Upstream (502/429)
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized error codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict
	case s == string(ErrCodeUpstreamRateLimited):
		return http.StatusTooManyRequests
	case s == string(ErrCodeUpstreamUnavailable), s == string(ErrCodeFetchFailed):
		return http.StatusBadGateway
	case s == string(ErrCodeLocationUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. All domain and handler
// errors are expressed as AppError to enable consistent error classification,
// HTTP status mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf extracts the ErrorCode from an error chain. Errors that do not wrap
// an AppError are treated as internal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsRetryable reports whether the pipeline should schedule a retry after the
// given error. Only location and fetch failures are transient; everything
// else either terminates the cycle (internal) or is dropped (notify).
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case ErrCodeLocationUnavailable, ErrCodeFetchFailed:
		return true
	}
	return false
}
