package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Tanvirgit07/Tomato-seller/internal/domain"
	"github.com/Tanvirgit07/Tomato-seller/internal/guard"
	"github.com/Tanvirgit07/Tomato-seller/internal/middleware"
	"github.com/Tanvirgit07/Tomato-seller/internal/service"
	"github.com/Tanvirgit07/Tomato-seller/internal/session"
	apperrors "github.com/Tanvirgit07/Tomato-seller/pkg/errors"
	"github.com/Tanvirgit07/Tomato-seller/pkg/httputil"
	"github.com/Tanvirgit07/Tomato-seller/pkg/validator"
)

const maxFormBytes = 1 << 20

// AuthHandler serves the login page and the auth exchange endpoints.
type AuthHandler struct {
	auth    *service.AuthService
	cookies *session.CookieStore
	ips     *middleware.IPResolver
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler. ips resolves the client
// address used for attempt counting and audit events.
func NewAuthHandler(auth *service.AuthService, cookies *session.CookieStore, ips *middleware.IPResolver, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies, ips: ips, logger: logger}
}

// --- Request/Response DTOs ---

// SignInRequest is the sign-in body, sent as JSON or as a form post.
// Presence is checked by the service so blank credentials are audited.
type SignInRequest struct {
	Email       string `json:"email" validate:"max=254"`
	Password    string `json:"password" validate:"max=1024"`
	CallbackURL string `json:"callback_url" validate:"max=2048"`
}

// SignInResponse is returned to JSON callers after a successful sign-in.
type SignInResponse struct {
	User       domain.Identity `json:"user"`
	ExpiresAt  time.Time       `json:"expires_at"`
	RedirectTo string          `json:"redirect_to"`
}

// SessionResponse describes the caller's session. The backend access token
// is never included.
type SessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *domain.Identity `json:"user,omitempty"`
	ExpiresAt     *time.Time       `json:"expires_at,omitempty"`
}

// --- Handlers ---

// LoginPage handles GET /login.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	renderPage(w, r, h.logger, http.StatusOK, loginTemplate, loginPageData{
		Error:       strings.TrimSpace(q.Get("error")),
		Email:       q.Get("email"),
		CallbackURL: httputil.SafeRedirectPath(q.Get("callback_url")),
	})
}

// SignInRedirect handles GET /signin.
func (h *AuthHandler) SignInRedirect(w http.ResponseWriter, r *http.Request) {
	target := guard.LoginPath
	if cb := r.URL.Query().Get("callback_url"); cb != "" {
		target += "?callback_url=" + url.QueryEscape(httputil.SafeRedirectPath(cb))
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	jsonCaller := httputil.WantsJSON(r)

	req, err := h.decodeSignIn(w, r)
	if err != nil {
		h.signInFailed(w, r, jsonCaller, req, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		if jsonCaller {
			httputil.WriteValidationError(w, err)
			return
		}
		h.signInFailed(w, r, false, req, apperrors.InvalidInput("email or password is too long"))
		return
	}

	result, err := h.auth.SignIn(r.Context(), service.SignInInput{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: h.ips.ClientIP(r),
	})
	if err != nil {
		h.signInFailed(w, r, jsonCaller, req, err)
		return
	}

	h.cookies.Write(w, result.Token)
	target := httputil.SafeRedirectPath(req.CallbackURL)

	if jsonCaller {
		httputil.WriteData(w, http.StatusOK, SignInResponse{
			User:       result.Session.Identity,
			ExpiresAt:  result.Session.ExpiresAt,
			RedirectTo: target,
		})
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *AuthHandler) decodeSignIn(w http.ResponseWriter, r *http.Request) (SignInRequest, error) {
	var req SignInRequest
	if httputil.IsJSONRequest(r) {
		err := httputil.DecodeJSON(r, &req)
		return req, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return req, apperrors.InvalidInput("invalid form body")
	}
	req.Email = r.PostForm.Get("email")
	req.Password = r.PostForm.Get("password")
	req.CallbackURL = r.PostForm.Get("callback_url")
	return req, nil
}

// signInFailed answers JSON callers with the error envelope and sends form
// posts back to the login page with the message in the query string.
func (h *AuthHandler) signInFailed(w http.ResponseWriter, r *http.Request, jsonCaller bool, req SignInRequest, err error) {
	if jsonCaller {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	message := "an internal error occurred"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "sign-in failed", slog.String("error", err.Error()))
	}

	q := url.Values{}
	q.Set("error", message)
	if email := strings.TrimSpace(req.Email); email != "" {
		q.Set("email", email)
	}
	if req.CallbackURL != "" {
		q.Set("callback_url", httputil.SafeRedirectPath(req.CallbackURL))
	}
	http.Redirect(w, r, guard.LoginPath+"?"+q.Encode(), http.StatusSeeOther)
}

// SignOut handles POST /api/auth/signout.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		h.auth.SignOut(r.Context(), sess, h.ips.ClientIP(r))
	}
	h.cookies.Clear(w)

	if httputil.WantsJSON(r) {
		httputil.WriteData(w, http.StatusOK, SessionResponse{Authenticated: false})
		return
	}
	http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httputil.WriteData(w, http.StatusOK, SessionResponse{Authenticated: false})
		return
	}
	user := sess.Identity
	expiresAt := sess.ExpiresAt
	httputil.WriteData(w, http.StatusOK, SessionResponse{
		Authenticated: true,
		User:          &user,
		ExpiresAt:     &expiresAt,
	})
}
