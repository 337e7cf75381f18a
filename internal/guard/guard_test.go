package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanvirgit07/Tomato-seller/internal/domain"
	"github.com/Tanvirgit07/Tomato-seller/internal/session"
	"github.com/Tanvirgit07/Tomato-seller/pkg/logger"
)

func sellerSession() *domain.Session {
	return &domain.Session{Identity: domain.Identity{ID: "s1", Email: "seller@x.com", Role: "seller", AccessToken: "abc"}}
}

func buyerSession() *domain.Session {
	return &domain.Session{Identity: domain.Identity{ID: "b1", Email: "buyer@x.com", Role: "buyer"}}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, domain.NoToken, Classify(nil))
	assert.Equal(t, domain.ValidTokenWrongRole, Classify(buyerSession()))
	assert.Equal(t, domain.ValidTokenCorrectRole, Classify(sellerSession()))
}

func TestEvaluate_DecisionTable(t *testing.T) {
	tests := []struct {
		name string
		path string
		sess *domain.Session
		want domain.Decision
	}{
		{"no token public", "/login", nil, domain.DecisionProceed},
		{"no token protected", "/orders", nil, domain.DecisionRedirect},
		{"wrong role public", "/api/auth/signin", buyerSession(), domain.DecisionProceed},
		{"wrong role protected", "/dashboard", buyerSession(), domain.DecisionRedirect},
		{"seller public", "/signin", sellerSession(), domain.DecisionProceed},
		{"seller protected", "/dashboard", sellerSession(), domain.DecisionProceed},
		{"root is protected", "/", nil, domain.DecisionRedirect},
		{"static asset", "/_next/static/chunk.js", nil, domain.DecisionProceed},
		{"image optimizer", "/_next/image", nil, domain.DecisionProceed},
		{"favicon", "/favicon.ico", nil, domain.DecisionProceed},
		{"health", "/health/ready", nil, domain.DecisionProceed},
		{"metrics", "/metrics", buyerSession(), domain.DecisionProceed},
		{"dashboard api", "/dashboard/api/orders", nil, domain.DecisionRedirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Evaluate(tt.path, tt.sess)
			second := Evaluate(tt.path, tt.sess)
			assert.Equal(t, tt.want, first)
			assert.Equal(t, first, second, "evaluation is idempotent")
		})
	}
}

func TestIsPublic_PrefixMatch(t *testing.T) {
	assert.True(t, IsPublic("/login"))
	assert.True(t, IsPublic("/login/help"))
	assert.True(t, IsPublic("/api/auth/session"))
	assert.False(t, IsPublic("/api/orders"))
	assert.False(t, IsPublic("/dashboard/login"))
}

type fixture struct {
	guard  *Guard
	store  *session.CookieStore
	tokens *session.TokenManager
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	tokens, err := session.NewTokenManager("guard-test-secret-with-32-bytes-min!", time.Hour, logger.Discard())
	require.NoError(t, err)
	store := session.NewCookieStore(session.CookieConfig{})
	return fixture{guard: New(store, tokens, logger.Discard()), store: store, tokens: tokens}
}

func (f fixture) request(t *testing.T, path string, id *domain.Identity) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if id != nil {
		tok, _, err := f.tokens.Issue(*id)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: f.store.Name(), Value: tok})
	}
	return req
}

func TestMiddleware_ScenarioC_NoCookie(t *testing.T) {
	f := newFixture(t)
	var reached bool
	h := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		_, ok := session.FromContext(r.Context())
		assert.False(t, ok)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, f.request(t, "/orders", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, reached)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, f.request(t, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}

func TestMiddleware_ScenarioD_TamperedCookie(t *testing.T) {
	f := newFixture(t)
	h := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("tampered session must not reach the handler")
	}))

	id := sellerSession().Identity
	req := f.request(t, "/dashboard", &id)
	c, err := req.Cookie(f.store.Name())
	require.NoError(t, err)

	tampered := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	tampered.AddCookie(&http.Cookie{Name: f.store.Name(), Value: c.Value + "x"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, tampered)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestMiddleware_SellerProceedsWithSessionInContext(t *testing.T) {
	f := newFixture(t)
	var got domain.Session
	h := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := session.FromContext(r.Context())
		require.True(t, ok)
		got = s
		assert.Equal(t, "s1", logger.SellerIDFromContext(r.Context()))
	}))

	id := sellerSession().Identity
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, f.request(t, "/dashboard", &id))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", got.AccessToken)
}

func TestMiddleware_WrongRole(t *testing.T) {
	f := newFixture(t)
	var publicReached bool
	h := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		publicReached = true
		_, ok := session.FromContext(r.Context())
		assert.False(t, ok, "wrong-role sessions are never placed in the context")
	}))

	id := buyerSession().Identity

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, f.request(t, "/dashboard", &id))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.False(t, publicReached)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, f.request(t, "/login", &id))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, publicReached)
}

func TestMiddleware_UnguardedSkipsDecoding(t *testing.T) {
	f := newFixture(t)
	h := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.AddCookie(&http.Cookie{Name: f.store.Name(), Value: "garbage"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddleware_CountsDecisions(t *testing.T) {
	f := newFixture(t)
	h := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	before := testutil.ToFloat64(decisionsTotal.WithLabelValues("no_token", "redirect"))
	h.ServeHTTP(httptest.NewRecorder(), f.request(t, "/products", nil))
	after := testutil.ToFloat64(decisionsTotal.WithLabelValues("no_token", "redirect"))

	assert.Equal(t, before+1, after)
}
