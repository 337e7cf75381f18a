package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Tanvirgit07/Tomato-seller/internal/session"
	apperrors "github.com/Tanvirgit07/Tomato-seller/pkg/errors"
	apphttp "github.com/Tanvirgit07/Tomato-seller/pkg/httputil"
)

// Read-only catalog routes on the commerce backend.
const (
	CategoriesPath      = "/category/allcategory"
	SubcategoriesPath   = "/subcategory/getallsubcategory"
	SubcategoryPathByID = "/subcategory/getsinglesubcategory/{id}"
	idPlaceholder       = "{id}"
)

type upstreamPathKey struct{}

// CatalogProxy forwards catalog reads to the commerce backend unchanged,
// swapping the dashboard cookie for the seller's bearer token.
type CatalogProxy struct {
	target *url.URL
	proxy  *httputil.ReverseProxy
	logger *slog.Logger
}

// NewCatalogProxy creates a proxy rooted at the backend base URL
// (e.g. http://localhost:5000/api/v1). A nil transport uses the default.
func NewCatalogProxy(baseURL string, transport http.RoundTripper, logger *slog.Logger) (*CatalogProxy, error) {
	target, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("backend url %q is not absolute", baseURL)
	}

	cp := &CatalogProxy{target: target, logger: logger}
	cp.proxy = &httputil.ReverseProxy{
		Rewrite:        cp.rewrite,
		Transport:      transport,
		ModifyResponse: stripSetCookie,
		ErrorHandler:   cp.errorHandler,
	}

	logger.Info("registered catalog proxy", slog.String("target", target.String()))
	return cp, nil
}

// Route returns a handler forwarding to backendPath. A "{id}" placeholder is
// filled from the chi "id" URL parameter.
func (cp *CatalogProxy) Route(backendPath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := backendPath
		if strings.Contains(path, idPlaceholder) {
			id, ok := apphttp.PathID(w, chi.URLParam(r, "id"))
			if !ok {
				return
			}
			path = strings.ReplaceAll(path, idPlaceholder, url.PathEscape(id))
		}
		ctx := context.WithValue(r.Context(), upstreamPathKey{}, path)
		cp.proxy.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (cp *CatalogProxy) rewrite(pr *httputil.ProxyRequest) {
	path, _ := pr.In.Context().Value(upstreamPathKey{}).(string)

	pr.Out.URL.Scheme = cp.target.Scheme
	pr.Out.URL.Host = cp.target.Host
	pr.Out.URL.Path = cp.target.Path + path
	pr.Out.URL.RawPath = ""
	pr.Out.URL.RawQuery = pr.In.URL.RawQuery
	pr.Out.Host = cp.target.Host
	pr.SetXForwarded()

	// The dashboard cookie carries the signed session and stays here.
	pr.Out.Header.Del("Cookie")
	pr.Out.Header.Del("Authorization")
	if token := session.BearerToken(pr.In.Context()); token != "" {
		pr.Out.Header.Set("Authorization", "Bearer "+token)
	}
}

// stripSetCookie keeps backend cookies from landing on the dashboard origin.
func stripSetCookie(resp *http.Response) error {
	resp.Header.Del("Set-Cookie")
	return nil
}

func (cp *CatalogProxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	e := apperrors.Upstream("upstream service unavailable")
	e.Err = fmt.Errorf("%w: catalog proxy: %v", apperrors.ErrUpstream, err)
	apphttp.WriteError(w, r, e, cp.logger)
}
