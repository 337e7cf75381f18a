package http

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tanvirgit07/Tomato-seller/internal/config"
	"github.com/Tanvirgit07/Tomato-seller/internal/guard"
	"github.com/Tanvirgit07/Tomato-seller/internal/middleware"
	"github.com/Tanvirgit07/Tomato-seller/internal/proxy"
	"github.com/Tanvirgit07/Tomato-seller/pkg/health"
	"github.com/Tanvirgit07/Tomato-seller/pkg/httputil"
	pkgmiddleware "github.com/Tanvirgit07/Tomato-seller/pkg/middleware"
)

const (
	serviceName    = "seller-dashboard"
	requestTimeout = 30 * time.Second
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth          *AuthHandler
	Dashboard     *DashboardHandler
	Catalog       *proxy.CatalogProxy
	Guard         *guard.Guard
	SigninLimiter *middleware.RateLimiter
	Health        *health.Handler
}

// NewRouter creates a chi router with the global middleware stack, the route
// guard, ops endpoints, the auth exchange and the dashboard.
func NewRouter(cfg *config.Config, h Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack (applied in order).
	cors := pkgmiddleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	r.Use(pkgmiddleware.CORS(cors))
	r.Use(pkgmiddleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(pkgmiddleware.RequestLogging(logger))
	r.Use(pkgmiddleware.PrometheusMetrics(serviceName))
	r.Use(pkgmiddleware.Tracing(serviceName))
	r.Use(pkgmiddleware.RequestLogger(logger))
	r.Use(h.Guard.Middleware)

	// Ops endpoints are skipped by the guard.
	r.Get("/health/live", h.Health.LivenessHandler())
	r.Get("/health/ready", h.Health.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", metricsIPAllowlist(cfg.MetricsAllowedCIDRs, logger)(promhttp.Handler()))

	sameOrigin := pkgmiddleware.SameOrigin(cfg.CORSAllowedOrigins, logger)

	// Public pages and the auth exchange.
	r.Group(func(r chi.Router) {
		r.Use(pkgmiddleware.NoStore)
		r.Use(sameOrigin)

		r.Get(guard.LoginPath, h.Auth.LoginPage)
		r.Get("/signin", h.Auth.SignInRedirect)
		r.Route("/api/auth", func(r chi.Router) {
			r.With(h.SigninLimiter.Middleware).Post("/signin", h.Auth.SignIn)
			r.Post("/signout", h.Auth.SignOut)
			r.Get("/session", h.Auth.Session)
		})
	})

	// Protected dashboard.
	r.Group(func(r chi.Router) {
		r.Use(pkgmiddleware.NoStore)
		r.Use(sameOrigin)

		r.Get("/", h.Dashboard.Home)
		r.Get("/dashboard", h.Dashboard.Page)

		r.Route("/dashboard/api", func(r chi.Router) {
			r.Get("/overview", h.Dashboard.Overview)
			r.Get("/revenue", h.Dashboard.Revenue)
			r.Get("/analytics", h.Dashboard.Analytics)

			r.Get("/orders", h.Dashboard.ListOrders)
			r.Get("/orders/{id}", h.Dashboard.GetOrder)
			r.Delete("/orders/{id}", h.Dashboard.DeleteOrder)

			r.Get("/products", h.Dashboard.ListProducts)
			r.Patch("/products/{id}/status", h.Dashboard.UpdateProductStatus)
			r.Delete("/products/{id}", h.Dashboard.DeleteProduct)

			r.Delete("/categories/{id}", h.Dashboard.DeleteCategory)
			r.Delete("/subcategories/{id}", h.Dashboard.DeleteSubcategory)

			r.Method(http.MethodGet, "/catalog/categories", h.Catalog.Route(proxy.CategoriesPath))
			r.Method(http.MethodGet, "/catalog/subcategories", h.Catalog.Route(proxy.SubcategoriesPath))
			r.Method(http.MethodGet, "/catalog/subcategories/{id}", h.Catalog.Route(proxy.SubcategoryPathByID))
		})
	})

	return r
}

// metricsIPAllowlist returns middleware that restricts access to requests
// from IPs within the configured CIDR ranges.
func metricsIPAllowlist(cidrs []string, logger *slog.Logger) func(http.Handler) http.Handler {
	var nets []*net.IPNet
	for _, cidr := range cidrs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			logger.Warn("invalid metrics CIDR, skipping", slog.String("cidr", cidr), slog.String("error", err.Error()))
			continue
		}
		nets = append(nets, ipNet)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			ip := net.ParseIP(host)

			allowed := false
			if ip != nil {
				for _, n := range nets {
					if n.Contains(ip) {
						allowed = true
						break
					}
				}
			}

			if !allowed {
				logger.Warn("metrics access denied", slog.String("ip", host))
				httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "FORBIDDEN", Message: "metrics endpoint is restricted"},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
