package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrInvalidInput, ErrAuthenticationFailed, ErrUnauthorized,
		ErrMalformedResponse, ErrTooManyAttempts, ErrNotFound,
		ErrForbidden, ErrUpstream, ErrServiceUnavail, ErrInternal,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	withCause := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: fmt.Errorf("dial tcp: refused")}
	assert.Contains(t, withCause.Error(), "INTERNAL_ERROR")
	assert.Contains(t, withCause.Error(), "dial tcp: refused")

	bare := &AppError{Code: "NOT_FOUND", Message: "order not found"}
	assert.Equal(t, "NOT_FOUND: order not found", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"invalid input", InvalidInput("email is required"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"authentication failed", AuthenticationFailed("Invalid password"), "AUTHENTICATION_FAILED", http.StatusUnauthorized, ErrAuthenticationFailed},
		{"unauthorized role", Unauthorized("only seller accounts can access this dashboard"), "UNAUTHORIZED", http.StatusForbidden, ErrUnauthorized},
		{"unauthenticated", Unauthenticated("token expired"), "UNAUTHENTICATED", http.StatusUnauthorized, ErrAuthenticationFailed},
		{"malformed", MalformedResponse(fmt.Errorf("missing user")), "MALFORMED_RESPONSE", http.StatusBadGateway, ErrMalformedResponse},
		{"too many attempts", TooManyAttempts("slow down"), "TOO_MANY_ATTEMPTS", http.StatusTooManyRequests, ErrTooManyAttempts},
		{"not found", NotFound("order", "o-1"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"forbidden", Forbidden("not allowed"), "FORBIDDEN", http.StatusForbidden, ErrForbidden},
		{"upstream", Upstream("backend failed"), "BAD_GATEWAY", http.StatusBadGateway, ErrUpstream},
		{"unavailable", ServiceUnavailable("circuit open"), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestAuthenticationUnavailable(t *testing.T) {
	err := AuthenticationUnavailable("", errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.ErrorIs(t, err, ErrServiceUnavail)
	assert.Equal(t, "AUTHENTICATION_FAILED", err.Code)
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(err))
	assert.Equal(t, "authentication failed", err.Message)
}

func TestAuthenticationFailed_DefaultMessage(t *testing.T) {
	assert.Equal(t, "authentication failed", AuthenticationFailed("").Message)
}

func TestMalformedResponse_HidesCause(t *testing.T) {
	err := MalformedResponse(fmt.Errorf("data.user missing"))
	assert.NotContains(t, err.Message, "data.user")
	assert.Contains(t, err.Error(), "data.user missing")
}

func TestInternal(t *testing.T) {
	err := Internal(fmt.Errorf("segfault"))
	assert.Equal(t, "INTERNAL_ERROR", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Contains(t, err.Error(), "segfault")
}

func TestWrap(t *testing.T) {
	wrapped := Wrap(ErrNotFound, "get order")
	assert.Contains(t, wrapped.Error(), "get order")
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestHTTPStatus_SentinelErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrAuthenticationFailed, http.StatusUnauthorized},
		{ErrUnauthorized, http.StatusForbidden},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrTooManyAttempts, http.StatusTooManyRequests},
		{ErrMalformedResponse, http.StatusBadGateway},
		{ErrUpstream, http.StatusBadGateway},
		{ErrServiceUnavail, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrTooManyAttempts)
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(wrapped))
}

func TestHTTPStatus_UnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("unknown")))
}
