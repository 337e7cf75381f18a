package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Tanvirgit07/Tomato-seller/pkg/httputil"
)

// SameOrigin rejects state-changing requests a browser sent from another
// site. A request passes when its Origin matches the request host or one of
// trustedOrigins, or when it carries no Origin and Sec-Fetch-Site is not
// cross-site. Safe methods are never checked.
func SameOrigin(trustedOrigins []string, logger *slog.Logger) func(http.Handler) http.Handler {
	trusted := make(map[string]struct{}, len(trustedOrigins))
	for _, o := range trustedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" && o != "*" {
			trusted[strings.ToLower(o)] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) || sameOriginRequest(r, trusted) {
				next.ServeHTTP(w, r)
				return
			}

			logger.WarnContext(r.Context(), "cross-site request rejected",
				slog.String("path", r.URL.Path),
				slog.String("origin", r.Header.Get("Origin")),
				slog.String("sec_fetch_site", r.Header.Get("Sec-Fetch-Site")),
			)
			httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "FORBIDDEN", Message: "cross-site request rejected"},
			})
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func sameOriginRequest(r *http.Request, trusted map[string]struct{}) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return r.Header.Get("Sec-Fetch-Site") != "cross-site"
	}

	if _, ok := trusted[strings.ToLower(strings.TrimRight(origin, "/"))]; ok {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		// Covers the opaque "null" origin.
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
