package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Tanvirgit07/Tomato-seller/internal/domain"
	apperrors "github.com/Tanvirgit07/Tomato-seller/pkg/errors"
	"github.com/Tanvirgit07/Tomato-seller/pkg/httpclient"
)

// SigninPath is the identity backend's credential exchange endpoint.
const SigninPath = "/user/signin"

// DefaultTimeout bounds a single verification call.
const DefaultTimeout = 10 * time.Second

const maxResponseBytes = 1 << 20

// WrongRoleMessage does not reveal whether the account exists.
const WrongRoleMessage = "only seller accounts can access this dashboard"

// Verifier exchanges seller credentials with the identity backend.
type Verifier struct {
	client   *httpclient.CircuitBreakerClient
	endpoint string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewVerifier creates a verifier posting to baseURL + SigninPath.
func NewVerifier(client *httpclient.CircuitBreakerClient, baseURL string, timeout time.Duration, logger *slog.Logger) *Verifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Verifier{
		client:   client,
		endpoint: strings.TrimRight(baseURL, "/") + SigninPath,
		timeout:  timeout,
		logger:   logger,
	}
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signinResponse is {success, message?, data?, accessToken?} where data is
// either {user, accessToken?} or the user object itself.
type signinResponse struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
	AccessToken string          `json:"accessToken"`
}

type signinData struct {
	User        json.RawMessage `json:"user"`
	AccessToken string          `json:"accessToken"`
}

type backendUser struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phoneNumber"`
	Role         string `json:"role"`
	ProfileImage string `json:"profileImage"`
}

func (u backendUser) empty() bool {
	return u.ID == "" && u.Email == "" && u.Role == ""
}

// Verify checks email and password with the backend exactly once and
// returns the seller identity.
//
// Errors: InvalidInput when either credential is blank (no network call),
// AuthenticationFailed when the backend rejects the credentials or cannot be
// reached (outages also match ErrServiceUnavail), MalformedResponse when an
// accepted response carries no user or no user id, and Unauthorized when the
// user is not a seller.
func (v *Verifier) Verify(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, apperrors.InvalidInput("please enter your email and password")
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	body, err := json.Marshal(signinRequest{Email: email, Password: password})
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("marshal signin request: %w", err))
	}

	resp, err := v.client.Post(ctx, v.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		if httpclient.IsCircuitOpen(err) {
			v.logger.WarnContext(ctx, "identity backend circuit open")
		} else {
			v.logger.WarnContext(ctx, "identity backend unreachable", slog.String("error", err.Error()))
		}
		return nil, apperrors.AuthenticationUnavailable("", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.AuthenticationUnavailable("", fmt.Errorf("read signin response: %w", err))
	}

	var parsed signinResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode >= 500 {
		v.logger.WarnContext(ctx, "identity backend failed", slog.Int("status", resp.StatusCode))
		return nil, apperrors.AuthenticationUnavailable(strings.TrimSpace(parsed.Message), fmt.Errorf("signin status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (decodeErr == nil && !parsed.Success) {
		v.logger.InfoContext(ctx, "identity backend rejected sign-in",
			slog.Int("status", resp.StatusCode),
		)
		return nil, failed(strings.TrimSpace(parsed.Message), fmt.Errorf("signin status %d", resp.StatusCode))
	}
	if decodeErr != nil {
		v.logger.ErrorContext(ctx, "identity backend returned invalid JSON", slog.String("error", decodeErr.Error()))
		return nil, apperrors.MalformedResponse(decodeErr)
	}

	user, token, err := extractUser(parsed)
	if err != nil {
		v.logger.ErrorContext(ctx, "identity backend response violates contract", slog.String("error", err.Error()))
		return nil, apperrors.MalformedResponse(err)
	}

	if !domain.IsPermittedRole(user.Role) {
		v.logger.InfoContext(ctx, "sign-in refused for role", slog.String("role", user.Role))
		return nil, apperrors.Unauthorized(WrongRoleMessage)
	}

	return &domain.Identity{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PhoneNumber:  user.PhoneNumber,
		Role:         user.Role,
		ProfileImage: user.ProfileImage,
		AccessToken:  token,
	}, nil
}

// extractUser picks data.user, falling back to data itself, and the access
// token from data.accessToken, falling back to the top level.
func extractUser(resp signinResponse) (backendUser, string, error) {
	data := bytes.TrimSpace(resp.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return backendUser{}, "", errors.New("response has no data")
	}
	if data[0] != '{' {
		return backendUser{}, "", errors.New("response data is not an object")
	}

	var wrapped signinData
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return backendUser{}, "", fmt.Errorf("decode data: %w", err)
	}

	userJSON := bytes.TrimSpace(wrapped.User)
	if len(userJSON) == 0 || bytes.Equal(userJSON, []byte("null")) {
		userJSON = data
	}

	var user backendUser
	if err := json.Unmarshal(userJSON, &user); err != nil {
		return backendUser{}, "", fmt.Errorf("decode user: %w", err)
	}
	if user.empty() {
		return backendUser{}, "", errors.New("response has no user")
	}
	if strings.TrimSpace(user.ID) == "" {
		return backendUser{}, "", errors.New("response has no user id")
	}

	token := wrapped.AccessToken
	if token == "" {
		token = resp.AccessToken
	}
	return user, token, nil
}

func failed(message string, cause error) error {
	e := apperrors.AuthenticationFailed(message)
	e.Err = fmt.Errorf("%w: %v", apperrors.ErrAuthenticationFailed, cause)
	return e
}
