package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const defaultSessionSecret = "change-me-seller-dashboard-session-secret"

// minSecretBytes is the shortest HS256 secret accepted outside development.
const minSecretBytes = 32

// Config holds all configuration for the seller dashboard server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"3000"`

	// Commerce backend
	BackendAPIURL     string        `env:"BACKEND_API_URL" envDefault:"http://localhost:5000/api/v1"`
	BackendTimeout    time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`
	BackendMaxRetries int           `env:"BACKEND_MAX_RETRIES" envDefault:"2"`
	SigninTimeout     time.Duration `env:"SIGNIN_TIMEOUT" envDefault:"10s"`

	// Session
	SessionSecret       string        `env:"SESSION_SECRET" envDefault:"change-me-seller-dashboard-session-secret"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionCookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"seller-dashboard.session-token"`
	SessionCookieDomain string        `env:"SESSION_COOKIE_DOMAIN"`

	// Sign-in attempt limiter (Redis)
	LoginLimiterEnabled bool          `env:"LOGIN_LIMITER_ENABLED" envDefault:"true"`
	LoginMaxAttempts    int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginAttemptWindow  time.Duration `env:"LOGIN_ATTEMPT_WINDOW" envDefault:"15m"`
	RedisHost           string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort           int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword       string        `env:"REDIS_PASSWORD"`
	RedisDB             int           `env:"REDIS_DB" envDefault:"0"`

	// Auth audit events (Kafka)
	KafkaEnabled    bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers    []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	AuthEventsTopic string   `env:"AUTH_EVENTS_TOPIC" envDefault:"seller.auth.events"`

	// Per-IP rate limit on the sign-in endpoint
	SigninRateLimitRPS   float64 `env:"SIGNIN_RATE_LIMIT_RPS" envDefault:"1"`
	SigninRateLimitBurst int     `env:"SIGNIN_RATE_LIMIT_BURST" envDefault:"5"`

	CORSAllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	MetricsAllowedCIDRs []string `env:"METRICS_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,::1/128" envSeparator:","`
	TrustedProxyCIDRs   []string `env:"TRUSTED_PROXY_CIDRS" envSeparator:","`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load seller dashboard config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the server runs in production, which turns
// on the Secure cookie attribute.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}

	u, err := url.Parse(c.BackendAPIURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("BACKEND_API_URL must be an absolute URL, got %q", c.BackendAPIURL)
	}

	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must not be empty")
	}
	if c.Environment != "development" {
		if c.SessionSecret == defaultSessionSecret {
			return fmt.Errorf("SESSION_SECRET must be changed from default value in %s environment", c.Environment)
		}
		if len(c.SessionSecret) < minSecretBytes {
			return fmt.Errorf("SESSION_SECRET must be at least %d bytes in %s environment", minSecretBytes, c.Environment)
		}
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.SessionCookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	for _, cidr := range c.TrustedProxyCIDRs {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			return fmt.Errorf("TRUSTED_PROXY_CIDRS contains an invalid CIDR %q", cidr)
		}
	}
	if c.SigninTimeout <= 0 || c.BackendTimeout <= 0 {
		return fmt.Errorf("SIGNIN_TIMEOUT and BACKEND_TIMEOUT must be positive")
	}

	if c.LoginLimiterEnabled {
		if c.LoginMaxAttempts <= 0 {
			return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive when the limiter is enabled")
		}
		if c.LoginAttemptWindow <= 0 {
			return fmt.Errorf("LOGIN_ATTEMPT_WINDOW must be positive when the limiter is enabled")
		}
	}

	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS must be set when KAFKA_ENABLED is true")
	}

	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1, got %v", c.OTELSampleRate)
	}

	return nil
}
