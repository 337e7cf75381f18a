package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Tanvirgit07/Tomato-seller/internal/domain"
)

// Issuer is the iss claim of every session token.
const Issuer = "seller-dashboard"

// DefaultTTL is the fixed session lifetime.
const DefaultTTL = 7 * 24 * time.Hour

// Claims represents the JWT claims of a session token. The subject is the
// seller ID.
type Claims struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	Role         string `json:"role"`
	ProfileImage string `json:"profile_image,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and reads session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewTokenManager creates a token manager. A non-positive ttl falls back to
// DefaultTTL.
func NewTokenManager(secret string, ttl time.Duration, logger *slog.Logger) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("session secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}, nil
}

// SetClock replaces the time source. Intended for tests.
func (m *TokenManager) SetClock(now func() time.Time) {
	m.now = now
}

// TTL returns the session lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a session token carrying every identity field. The identity
// must have an ID, since Read rejects tokens without a subject.
func (m *TokenManager) Issue(identity domain.Identity) (string, domain.Session, error) {
	if strings.TrimSpace(identity.ID) == "" {
		return "", domain.Session{}, errors.New("issue session token: identity has no id")
	}

	// JWT times have second precision; truncate so Read returns what Issue did.
	now := m.now().UTC().Truncate(time.Second)
	exp := now.Add(m.ttl)

	claims := &Claims{
		Name:         identity.Name,
		Email:        identity.Email,
		PhoneNumber:  identity.PhoneNumber,
		Role:         identity.Role,
		ProfileImage: identity.ProfileImage,
		AccessToken:  identity.AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", domain.Session{}, fmt.Errorf("sign session token: %w", err)
	}

	return signed, domain.Session{Identity: identity, IssuedAt: now, ExpiresAt: exp}, nil
}

// Read verifies a session token. Every failure collapses to false; the
// reason is only logged at debug level.
func (m *TokenManager) Read(token string) (domain.Session, bool) {
	if token == "" {
		return domain.Session{}, false
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		m.logger.Debug("session token rejected", slog.Any("reason", err))
		return domain.Session{}, false
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		m.logger.Debug("session token rejected", slog.String("reason", "missing subject or iat"))
		return domain.Session{}, false
	}

	sess := domain.Session{
		Identity: domain.Identity{
			ID:           claims.Subject,
			Name:         claims.Name,
			Email:        claims.Email,
			PhoneNumber:  claims.PhoneNumber,
			Role:         claims.Role,
			ProfileImage: claims.ProfileImage,
			AccessToken:  claims.AccessToken,
		},
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if sess.Expired(m.now()) {
		m.logger.Debug("session token rejected", slog.String("reason", "expired"))
		return domain.Session{}, false
	}
	return sess, true
}
