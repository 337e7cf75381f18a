package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/Tanvirgit07/Tomato-seller/pkg/errors"
)

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 64 << 10

// BackendEnvelope is the response wrapper used by the commerce backend:
// {"success": bool, "message": string, "data": ...}.
type BackendEnvelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ParseResponseError reads a non-2xx response and translates it into an
// AppError, keeping the backend's message when the body is a JSON envelope.
// The body is consumed and closed.
func ParseResponseError(resp *http.Response, resource string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", resource, resp.StatusCode, err)
	}

	return mapBackendError(resp.StatusCode, BackendMessage(body), resource)
}

// BackendMessage extracts the "message" of a backend envelope, or "" when
// the body is not one.
func BackendMessage(body []byte) string {
	var env BackendEnvelope
	if json.Unmarshal(body, &env) != nil {
		return ""
	}
	return strings.TrimSpace(env.Message)
}

func mapBackendError(status int, message, resource string) error {
	withDefault := func(def string) string {
		if message != "" {
			return message
		}
		return def
	}

	switch {
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(withDefault(resource + ": invalid request"))
	case status == http.StatusUnauthorized:
		return apperrors.Unauthenticated(withDefault("the backend rejected the session token"))
	case status == http.StatusForbidden:
		return apperrors.Forbidden(withDefault("not allowed to access " + resource))
	case status == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: withDefault(resource + " not found"),
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(withDefault(resource + " is temporarily unavailable"))
	case status >= 500:
		e := apperrors.Upstream(resource + " failed")
		e.Err = fmt.Errorf("%w: status %d: %s", apperrors.ErrUpstream, status, message)
		return e
	default:
		return &apperrors.AppError{
			Code:    "BACKEND_ERROR",
			Message: withDefault(fmt.Sprintf("%s returned status %d", resource, status)),
			Status:  status,
		}
	}
}
