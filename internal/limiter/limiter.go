package limiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/Tanvirgit07/Tomato-seller/pkg/errors"
)

const (
	emailKeyPrefix = "signin:email:"
	ipKeyPrefix    = "signin:ip:"
)

// Limiter throttles failed sign-in attempts.
type Limiter interface {
	// Check returns a TooManyAttempts error when the email or the client IP
	// has used up its failures for the current window.
	Check(ctx context.Context, email, ip string) error
	// RecordFailure counts one failed attempt against both keys.
	RecordFailure(ctx context.Context, email, ip string) error
	// Reset clears the email counter after a successful sign-in.
	Reset(ctx context.Context, email string) error
}

// RedisLimiter keeps fixed-window failure counters in Redis. When Redis is
// unreachable it fails open and logs, so an outage never locks sellers out.
type RedisLimiter struct {
	redis       redis.UniversalClient
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a limiter allowing maxAttempts failures per window.
func NewRedisLimiter(client redis.UniversalClient, maxAttempts int, window time.Duration, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{
		redis:       client,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
	}
}

func emailKey(email string) string {
	return emailKeyPrefix + NormalizeEmail(email)
}

func ipKey(ip string) string {
	return ipKeyPrefix + ip
}

// NormalizeEmail lowercases and trims an address so counters cannot be
// dodged by changing case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (l *RedisLimiter) keys(email, ip string) []string {
	keys := make([]string, 0, 2)
	if NormalizeEmail(email) != "" {
		keys = append(keys, emailKey(email))
	}
	if ip != "" {
		keys = append(keys, ipKey(ip))
	}
	return keys
}

// Check implements Limiter.
func (l *RedisLimiter) Check(ctx context.Context, email, ip string) error {
	keys := l.keys(email, ip)
	if len(keys) == 0 {
		return nil
	}

	values, err := l.redis.MGet(ctx, keys...).Result()
	if err != nil {
		l.logger.WarnContext(ctx, "sign-in limiter unavailable, allowing attempt",
			slog.String("error", err.Error()),
		)
		return nil
	}

	for i, v := range values {
		count, ok := toCount(v)
		if !ok || count < int64(l.maxAttempts) {
			continue
		}
		ttl := l.retryAfter(ctx, keys[i])
		l.logger.InfoContext(ctx, "sign-in attempts exhausted",
			slog.String("key", keyKind(keys[i])),
			slog.Duration("retry_after", ttl),
		)
		return apperrors.TooManyAttempts(fmt.Sprintf("too many failed sign-in attempts, try again in %s", humanize(ttl)))
	}
	return nil
}

// RecordFailure implements Limiter.
func (l *RedisLimiter) RecordFailure(ctx context.Context, email, ip string) error {
	var errs []error
	for _, key := range l.keys(email, ip) {
		if err := l.increment(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		l.logger.WarnContext(ctx, "failed to record sign-in failure",
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// incrementScript bumps a counter and starts its window in one step. A key
// left without a TTL is given one, so a counter can never outlive its window.
var incrementScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

func (l *RedisLimiter) increment(ctx context.Context, key string) error {
	if err := incrementScript.Run(ctx, l.redis, []string{key}, l.window.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("incr %s: %w", keyKind(key), err)
	}
	return nil
}

// Reset implements Limiter.
func (l *RedisLimiter) Reset(ctx context.Context, email string) error {
	if NormalizeEmail(email) == "" {
		return nil
	}
	if err := l.redis.Del(ctx, emailKey(email)).Err(); err != nil {
		l.logger.WarnContext(ctx, "failed to reset sign-in limiter",
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (l *RedisLimiter) retryAfter(ctx context.Context, key string) time.Duration {
	ttl, err := l.redis.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		return l.window
	}
	return ttl
}

func toCount(v any) (int64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func keyKind(key string) string {
	if strings.HasPrefix(key, ipKeyPrefix) {
		return "ip"
	}
	return "email"
}

func humanize(d time.Duration) string {
	if d < time.Minute {
		return "a minute"
	}
	m := int(d.Round(time.Minute) / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}

// Nop is a Limiter that never blocks.
type Nop struct{}

var _ Limiter = Nop{}

func (Nop) Check(context.Context, string, string) error         { return nil }
func (Nop) RecordFailure(context.Context, string, string) error { return nil }
func (Nop) Reset(context.Context, string) error                 { return nil }
