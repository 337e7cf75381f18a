package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Tanvirgit07/Tomato-seller/internal/backend"
	"github.com/Tanvirgit07/Tomato-seller/internal/config"
	"github.com/Tanvirgit07/Tomato-seller/internal/event"
	"github.com/Tanvirgit07/Tomato-seller/internal/guard"
	handler "github.com/Tanvirgit07/Tomato-seller/internal/handler/http"
	"github.com/Tanvirgit07/Tomato-seller/internal/identity"
	"github.com/Tanvirgit07/Tomato-seller/internal/limiter"
	"github.com/Tanvirgit07/Tomato-seller/internal/middleware"
	"github.com/Tanvirgit07/Tomato-seller/internal/proxy"
	"github.com/Tanvirgit07/Tomato-seller/internal/service"
	"github.com/Tanvirgit07/Tomato-seller/internal/session"
	"github.com/Tanvirgit07/Tomato-seller/pkg/database"
	"github.com/Tanvirgit07/Tomato-seller/pkg/health"
	"github.com/Tanvirgit07/Tomato-seller/pkg/httpclient"
	pkgkafka "github.com/Tanvirgit07/Tomato-seller/pkg/kafka"
	"github.com/Tanvirgit07/Tomato-seller/pkg/tracing"
)

const (
	serviceName    = "seller-dashboard"
	serviceVersion = "0.1.0"
)

// App wires together all dependencies and runs the seller dashboard.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	redis          *redis.Client
	kafkaProducer  *pkgkafka.Producer
	signinLimiter  *middleware.RateLimiter
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance. Redis is dialed only when the
// attempt limiter is enabled and Kafka only when audit events are.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       cfg.OTELInsecure,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, tracerShutdown: tracerShutdown}
	healthHandler := health.NewHandler()

	// Sessions.
	tokens, err := session.NewTokenManager(cfg.SessionSecret, cfg.SessionTTL, logger)
	if err != nil {
		return nil, a.abort(fmt.Errorf("init session tokens: %w", err))
	}
	cookies := session.NewCookieStore(session.CookieConfig{
		Name:   cfg.SessionCookieName,
		Domain: cfg.SessionCookieDomain,
		Secure: cfg.IsProduction(),
		MaxAge: cfg.SessionTTL,
	})

	// Commerce backend clients, each behind its own breaker so a failing
	// dashboard endpoint cannot block sign-in.
	identityHTTP := httpclient.DefaultConfig()
	identityHTTP.Timeout = cfg.SigninTimeout
	identityHTTP.MaxRetries = 0
	identityClient := httpclient.NewCircuitBreakerClient(
		httpclient.New(identityHTTP),
		httpclient.DefaultCircuitBreakerConfig("identity"),
		logger,
	)

	backendHTTP := httpclient.DefaultConfig()
	backendHTTP.Timeout = cfg.BackendTimeout
	backendHTTP.MaxRetries = cfg.BackendMaxRetries
	rawBackend := httpclient.New(backendHTTP)
	backendClient := httpclient.NewCircuitBreakerClient(
		rawBackend,
		httpclient.DefaultCircuitBreakerConfig("backend"),
		logger,
	)
	healthHandler.RegisterNonCritical("backend", health.HTTPChecker(rawBackend.HTTPClient(), cfg.BackendAPIURL))

	// Sign-in attempt limiter.
	var attempts limiter.Limiter = limiter.Nop{}
	if cfg.LoginLimiterEnabled {
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Host = cfg.RedisHost
		redisCfg.Port = cfg.RedisPort
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB

		a.redis, err = database.NewRedisClient(ctx, redisCfg, logger)
		if err != nil {
			return nil, a.abort(fmt.Errorf("connect redis: %w", err))
		}
		healthHandler.Register("redis", database.RedisChecker(a.redis))
		attempts = limiter.NewRedisLimiter(a.redis, cfg.LoginMaxAttempts, cfg.LoginAttemptWindow, logger)
	} else {
		logger.Warn("sign-in attempt limiter disabled")
	}

	// Auth audit events.
	var publisher event.Publisher = event.Nop{}
	if cfg.KafkaEnabled {
		a.kafkaProducer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		healthHandler.RegisterNonCritical("kafka", a.kafkaProducer.Ping)
		publisher = event.NewProducer(a.kafkaProducer, cfg.AuthEventsTopic, logger)
	}

	// Services.
	verifier := identity.NewVerifier(identityClient, cfg.BackendAPIURL, cfg.SigninTimeout, logger)
	authService := service.NewAuthService(verifier, tokens, attempts, publisher, logger)
	dashboardService := service.NewDashboardService(backend.NewClient(backendClient, cfg.BackendAPIURL, logger), logger)

	catalog, err := proxy.NewCatalogProxy(cfg.BackendAPIURL, rawBackend.HTTPClient().Transport, logger)
	if err != nil {
		return nil, a.abort(fmt.Errorf("init catalog proxy: %w", err))
	}

	ips := middleware.NewIPResolver(cfg.TrustedProxyCIDRs, logger)
	a.signinLimiter = middleware.NewRateLimiter(cfg.SigninRateLimitRPS, cfg.SigninRateLimitBurst, ips, logger)

	router := handler.NewRouter(cfg, handler.Handlers{
		Auth:          handler.NewAuthHandler(authService, cookies, ips, logger),
		Dashboard:     handler.NewDashboardHandler(dashboardService, logger),
		Catalog:       catalog,
		Guard:         guard.New(cookies, tokens, logger),
		SigninLimiter: a.signinLimiter,
		Health:        healthHandler,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// abort releases whatever NewApp had opened before failing.
func (a *App) abort(err error) error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = a.tracerShutdown(ctx)
	}
	return err
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application in order:
// 1. HTTP server (drain in-flight requests)
// 2. Kafka producer (flush audit events written by those requests)
// 3. Redis
// 4. Tracer (flush pending spans)
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.signinLimiter != nil {
		a.signinLimiter.Close()
	}

	if a.kafkaProducer != nil {
		if err := a.kafkaProducer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
