package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the dashboard's error taxonomy. AppError values wrap
// one of these so callers can branch with errors.Is.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrTooManyAttempts      = errors.New("too many attempts")
	ErrNotFound             = errors.New("resource not found")
	ErrForbidden            = errors.New("forbidden")
	ErrUpstream             = errors.New("upstream error")
	ErrServiceUnavail       = errors.New("service unavailable")
	ErrInternal             = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// InvalidInput creates a 400 error. Used for missing credentials and bad
// request parameters.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// AuthenticationFailed creates a 401 error for rejected credentials. The
// message is shown to the user, so it carries the backend's own wording
// when there is one.
func AuthenticationFailed(message string) *AppError {
	if message == "" {
		message = "authentication failed"
	}
	return &AppError{
		Code:    "AUTHENTICATION_FAILED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrAuthenticationFailed,
	}
}

// AuthenticationUnavailable is an AuthenticationFailed raised because the
// identity backend could not be reached or failed on its side. It also
// matches ErrServiceUnavail, which keeps it out of attempt counting.
func AuthenticationUnavailable(message string, cause error) *AppError {
	e := AuthenticationFailed(message)
	e.Err = fmt.Errorf("%w: %w: %v", ErrAuthenticationFailed, ErrServiceUnavail, cause)
	return e
}

// Unauthorized creates a 403 error for a valid account whose role may not
// use the dashboard.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrUnauthorized,
	}
}

// Unauthenticated creates a 401 error for a downstream call the backend
// refused because the bearer token was missing or stale.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHENTICATED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrAuthenticationFailed,
	}
}

// MalformedResponse creates a 502 error for a backend contract violation.
// The user only ever sees the generic message; cause is kept for logs.
func MalformedResponse(cause error) *AppError {
	return &AppError{
		Code:    "MALFORMED_RESPONSE",
		Message: "the identity service returned an unexpected response",
		Status:  http.StatusBadGateway,
		Err:     fmt.Errorf("%w: %v", ErrMalformedResponse, cause),
	}
}

// TooManyAttempts creates a 429 error.
func TooManyAttempts(message string) *AppError {
	return &AppError{
		Code:    "TOO_MANY_ATTEMPTS",
		Message: message,
		Status:  http.StatusTooManyRequests,
		Err:     ErrTooManyAttempts,
	}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Upstream creates a 502 error for a failed backend call.
func Upstream(message string) *AppError {
	return &AppError{
		Code:    "BAD_GATEWAY",
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     ErrUpstream,
	}
}

// ServiceUnavailable creates a 503 error, typically while a circuit is open.
func ServiceUnavailable(message string) *AppError {
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrServiceUnavail,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap annotates err with the operation that failed.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrMalformedResponse), errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
