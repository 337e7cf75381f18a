package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Tanvirgit07/Tomato-seller/internal/domain"
	"github.com/Tanvirgit07/Tomato-seller/internal/event"
	"github.com/Tanvirgit07/Tomato-seller/internal/limiter"
	apperrors "github.com/Tanvirgit07/Tomato-seller/pkg/errors"
)

var signinOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "seller_dashboard_signin_total",
		Help: "Sign-in attempts by outcome.",
	},
	[]string{"outcome"},
)

// CredentialVerifier exchanges credentials for a seller identity.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*domain.Identity, error)
}

// SessionIssuer mints the signed session artifact for an identity.
type SessionIssuer interface {
	Issue(identity domain.Identity) (string, domain.Session, error)
}

// AuthService orchestrates sign-in and sign-out.
type AuthService struct {
	verifier  CredentialVerifier
	issuer    SessionIssuer
	limiter   limiter.Limiter
	publisher event.Publisher
	logger    *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	verifier CredentialVerifier,
	issuer SessionIssuer,
	lim limiter.Limiter,
	publisher event.Publisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		verifier:  verifier,
		issuer:    issuer,
		limiter:   lim,
		publisher: publisher,
		logger:    logger,
	}
}

// SignInInput holds the submitted credentials.
type SignInInput struct {
	Email    string `json:"email" validate:"required,notblank,max=254"`
	Password string `json:"password" validate:"required,notblank,max=1024"`
	ClientIP string `json:"-"`
}

// SignInResult is a freshly issued session and its signed artifact.
type SignInResult struct {
	Session domain.Session
	Token   string
}

// SignIn verifies the credentials and issues a session. Nothing is persisted
// before the token is returned, so a caller that aborts loses nothing.
func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (*SignInResult, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || strings.TrimSpace(input.Password) == "" {
		s.reject(ctx, email, event.ReasonInvalidInput, input.ClientIP)
		return nil, apperrors.InvalidInput("please enter your email and password")
	}

	if err := s.limiter.Check(ctx, email, input.ClientIP); err != nil {
		s.reject(ctx, email, event.ReasonTooManyAttempts, input.ClientIP)
		return nil, err
	}

	identity, err := s.verifier.Verify(ctx, email, input.Password)
	if err != nil {
		reason := rejectionReason(err)
		if countsAsFailure(err) {
			if lerr := s.limiter.RecordFailure(ctx, email, input.ClientIP); lerr != nil {
				s.logger.WarnContext(ctx, "failed to record sign-in failure", slog.String("error", lerr.Error()))
			}
		}
		s.reject(ctx, email, reason, input.ClientIP)
		return nil, err
	}

	token, sess, err := s.issuer.Issue(*identity)
	if err != nil {
		s.reject(ctx, email, event.ReasonInternal, input.ClientIP)
		return nil, apperrors.Internal(fmt.Errorf("issue session: %w", err))
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "failed to reset sign-in attempts", slog.String("error", err.Error()))
	}

	if err := s.publisher.PublishSignedIn(ctx, sess, input.ClientIP); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish seller.signed_in event",
			slog.String("seller_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	signinOutcomes.WithLabelValues("success").Inc()
	s.logger.InfoContext(ctx, "seller signed in",
		slog.String("seller_id", sess.ID),
		slog.Time("expires_at", sess.ExpiresAt),
	)

	return &SignInResult{Session: sess, Token: token}, nil
}

// SignOut records the end of a session. The cookie itself is cleared by the
// caller; there is no server-side state to drop.
func (s *AuthService) SignOut(ctx context.Context, sess domain.Session, clientIP string) {
	if err := s.publisher.PublishSignedOut(ctx, sess, clientIP); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish seller.signed_out event",
			slog.String("seller_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}
	s.logger.InfoContext(ctx, "seller signed out", slog.String("seller_id", sess.ID))
}

func (s *AuthService) reject(ctx context.Context, email, reason, clientIP string) {
	signinOutcomes.WithLabelValues(reason).Inc()
	if err := s.publisher.PublishSigninRejected(ctx, email, reason, clientIP); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish seller.signin_rejected event",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return event.ReasonInvalidInput
	case errors.Is(err, apperrors.ErrServiceUnavail):
		return event.ReasonBackendUnavailable
	case errors.Is(err, apperrors.ErrAuthenticationFailed):
		return event.ReasonAuthFailed
	case errors.Is(err, apperrors.ErrUnauthorized):
		return event.ReasonWrongRole
	case errors.Is(err, apperrors.ErrMalformedResponse):
		return event.ReasonMalformed
	case errors.Is(err, apperrors.ErrTooManyAttempts):
		return event.ReasonTooManyAttempts
	default:
		return event.ReasonInternal
	}
}

// countsAsFailure reports whether err counts against the attempt limit.
// Backend outages and malformed answers are not the caller's fault.
func countsAsFailure(err error) bool {
	if errors.Is(err, apperrors.ErrServiceUnavail) {
		return false
	}
	return errors.Is(err, apperrors.ErrAuthenticationFailed) || errors.Is(err, apperrors.ErrUnauthorized)
}
