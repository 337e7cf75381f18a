package guard

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Tanvirgit07/Tomato-seller/internal/domain"
	"github.com/Tanvirgit07/Tomato-seller/internal/session"
	"github.com/Tanvirgit07/Tomato-seller/pkg/logger"
)

// LoginPath is where rejected requests are sent.
const LoginPath = "/login"

// publicPrefixes bypass the redirect branch whatever the token state.
var publicPrefixes = []string{"/login", "/signin", "/api/auth"}

// unguardedPrefixes are excluded from the guard entirely: static assets and
// operational endpoints.
var unguardedPrefixes = []string{
	"/static/",
	"/assets/",
	"/_next/static/",
	"/_next/image",
	"/favicon.ico",
	"/health/",
	"/metrics",
}

var decisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "seller_dashboard_guard_decisions_total",
		Help: "Route guard decisions by session state and outcome",
	},
	[]string{"state", "decision"},
)

// IsPublic reports whether path is on the public allow-list (prefix match).
func IsPublic(path string) bool {
	return hasAnyPrefix(path, publicPrefixes)
}

// IsUnguarded reports whether path is excluded from guarding.
func IsUnguarded(path string) bool {
	return hasAnyPrefix(path, unguardedPrefixes)
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Classify derives the guard state from a decoded session; nil means no
// valid token was presented.
func Classify(sess *domain.Session) domain.GuardState {
	switch {
	case sess == nil:
		return domain.NoToken
	case domain.IsPermittedRole(sess.Role):
		return domain.ValidTokenCorrectRole
	default:
		return domain.ValidTokenWrongRole
	}
}

// Evaluate decides whether a request for path may proceed. It performs no
// I/O and has no side effects.
//
//	state          public   protected
//	NoToken        proceed  redirect
//	WrongRole      proceed  redirect
//	CorrectRole    proceed  proceed
func Evaluate(path string, sess *domain.Session) domain.Decision {
	if IsUnguarded(path) || IsPublic(path) {
		return domain.DecisionProceed
	}
	if Classify(sess) == domain.ValidTokenCorrectRole {
		return domain.DecisionProceed
	}
	return domain.DecisionRedirect
}

// Guard is the route guard middleware.
type Guard struct {
	store  *session.CookieStore
	tokens *session.TokenManager
	logger *slog.Logger
}

// New creates a route guard reading sessions through store and tokens.
func New(store *session.CookieStore, tokens *session.TokenManager, logger *slog.Logger) *Guard {
	return &Guard{store: store, tokens: tokens, logger: logger}
}

// Middleware evaluates every request once. Redirects go to LoginPath with
// 302 Found. Admitted seller sessions are placed in the request context and
// the request logger gains a seller_id attribute.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsUnguarded(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		var sess *domain.Session
		if s, ok := session.FromRequest(r, g.store, g.tokens); ok {
			sess = &s
		}

		state := Classify(sess)
		decision := Evaluate(r.URL.Path, sess)
		decisionsTotal.WithLabelValues(state.String(), decision.String()).Inc()

		if decision == domain.DecisionRedirect {
			logger.FromContext(r.Context()).DebugContext(r.Context(), "route guard redirect",
				slog.String("path", r.URL.Path),
				slog.String("state", state.String()),
			)
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}

		if state == domain.ValidTokenCorrectRole {
			ctx := session.NewContext(r.Context(), *sess)
			ctx = logger.WithSellerID(ctx, sess.ID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("seller_id", sess.ID)))
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(w, r)
	})
}
