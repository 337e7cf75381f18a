package session

import (
	"context"
	"net/http"

	"github.com/Tanvirgit07/Tomato-seller/internal/domain"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session the route guard admitted, or false when
// the request is unauthenticated.
func FromContext(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(contextKey{}).(domain.Session)
	return s, ok
}

// BearerToken returns the backend access token of the current session, or
// "" when there is none. Callers attach an Authorization header only when
// it is non-empty.
func BearerToken(ctx context.Context) string {
	s, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return s.AccessToken
}

// FromRequest decodes the session straight from the request cookie without
// consulting the context.
func FromRequest(r *http.Request, store *CookieStore, tokens *TokenManager) (domain.Session, bool) {
	raw, ok := store.Read(r)
	if !ok {
		return domain.Session{}, false
	}
	return tokens.Read(raw)
}
