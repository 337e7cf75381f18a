package session

import (
	"net/http"
	"time"
)

// DefaultCookieName distinguishes this dashboard's session cookie from other
// applications on the same domain.
const DefaultCookieName = "seller-dashboard.session-token"

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

// CookieStore carries the session token in an HttpOnly cookie. It is the
// only place a session lives.
type CookieStore struct {
	cfg CookieConfig
}

// NewCookieStore creates a cookie store, filling in the default name and
// lifetime when they are unset.
func NewCookieStore(cfg CookieConfig) *CookieStore {
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultTTL
	}
	return &CookieStore{cfg: cfg}
}

// Name returns the cookie name.
func (s *CookieStore) Name() string {
	return s.cfg.Name
}

// Write sets the session cookie.
func (s *CookieStore) Write(w http.ResponseWriter, token string) {
	c := s.base()
	c.Value = token
	c.MaxAge = int(s.cfg.MaxAge / time.Second)
	c.Expires = time.Now().Add(s.cfg.MaxAge)
	http.SetCookie(w, c)
}

// Read returns the session token from the request, if any.
func (s *CookieStore) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.cfg.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Clear expires the session cookie with the same attributes it was set with.
func (s *CookieStore) Clear(w http.ResponseWriter) {
	c := s.base()
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}

func (s *CookieStore) base() *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.Name,
		Path:     "/",
		Domain:   s.cfg.Domain,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
