// Package ratelimit provides a Redis-backed fixed-window rate limiter for the
// ID API. The limiter fails open: when Redis is missing, slow or broken,
// requests are allowed and the decision is marked Degraded.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"idgen_server/pkg/resilience"
)

// Config holds rate limiter configuration.
type Config struct {
	Limit   int           // requests per window per key
	Window  time.Duration // window size
	Prefix  string        // Redis key prefix
	Timeout time.Duration // per-call Redis timeout
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Limit:   600,
		Window:  time.Minute,
		Prefix:  "idgen:ratelimit:",
		Timeout: 50 * time.Millisecond,
	}
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
	Degraded  bool // Redis unavailable, request let through
}

// INCR the window counter and set its expiry on first use.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

// Limiter implements fixed window rate limiting using Redis.
type Limiter struct {
	redis   *redis.Client
	breaker *resilience.Breaker
	cfg     Config
	log     zerolog.Logger
}

// NewLimiter creates a limiter. redisClient may be nil, in which case every
// request is allowed.
func NewLimiter(redisClient *redis.Client, breaker *resilience.Breaker, cfg Config, log zerolog.Logger) *Limiter {
	def := DefaultConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Prefix == "" {
		cfg.Prefix = def.Prefix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if breaker == nil {
		breaker = resilience.NewBreaker(resilience.DefaultBreakerConfig("redis-ratelimit"), log)
	}

	return &Limiter{
		redis:   redisClient,
		breaker: breaker,
		cfg:     cfg,
		log:     log,
	}
}

// Enabled reports whether a Redis backend is configured.
func (l *Limiter) Enabled() bool {
	return l.redis != nil
}

// Allow counts one request for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) Decision {
	open := Decision{Allowed: true, Limit: l.cfg.Limit, Remaining: l.cfg.Limit}
	if l.redis == nil {
		return open
	}

	var count, ttl int64
	err := l.breaker.Do(func() error {
		callCtx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()

		res, err := fixedWindowScript.Run(callCtx, l.redis,
			[]string{l.cfg.Prefix + key}, l.cfg.Window.Milliseconds()).Int64Slice()
		if err != nil {
			return err
		}
		if len(res) != 2 {
			return fmt.Errorf("unexpected rate limit script reply: %v", res)
		}
		count, ttl = res[0], res[1]
		return nil
	})
	if err != nil {
		l.log.Debug().Err(err).Str("key", key).Str("breaker", l.breaker.Name()).Msg("rate limiter degraded, allowing request")
		open.Degraded = true
		return open
	}

	remaining := l.cfg.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	if ttl < 0 {
		ttl = l.cfg.Window.Milliseconds()
	}

	return Decision{
		Allowed:   count <= int64(l.cfg.Limit),
		Limit:     l.cfg.Limit,
		Remaining: remaining,
		ResetIn:   time.Duration(ttl) * time.Millisecond,
	}
}

// BreakerState exposes the Redis breaker state for readiness checks.
func (l *Limiter) BreakerState() string {
	return l.breaker.State()
}
