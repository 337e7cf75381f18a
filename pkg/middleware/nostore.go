package middleware

import "net/http"

// NoStore marks responses as uncacheable. Pages and data behind the session
// cookie must never be served from a shared or browser cache after sign-out.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-store")
		h.Set("Pragma", "no-cache")
		h.Add("Vary", "Cookie")
		next.ServeHTTP(w, r)
	})
}
