package bootstrap

import (
	"context"
	"fmt"
	"time"

	"idgen_server/config"
	"idgen_server/core/port/in"
	idservice "idgen_server/core/service/id"
	"idgen_server/pkg/logger"
	"idgen_server/pkg/metrics"
	"idgen_server/pkg/ratelimit"
	"idgen_server/pkg/resilience"
	"idgen_server/pkg/snowflake"

	"github.com/redis/go-redis/v9"
)

// Dependencies holds everything the API needs.
type Dependencies struct {
	Generator *snowflake.Generator
	Metrics   *metrics.GeneratorMetrics
	IDService in.IDService

	Redis   *redis.Client
	Limiter *ratelimit.Limiter
}

// NewDependencies builds the generator and its collaborators. An invalid
// worker ID fails here, before the server accepts any request.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	zlog := logger.Default().Zerolog()

	m := metrics.NewGeneratorMetrics(1000)
	gen, err := snowflake.NewGenerator(cfg.WorkerID,
		snowflake.WithLogger(zlog.With().Str("component", "snowflake").Logger()),
		snowflake.WithObserver(m),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("init generator: %w", err)
	}

	deps := &Dependencies{
		Generator: gen,
		Metrics:   m,
		IDService: idservice.NewService(gen, m, cfg.BatchMax),
	}

	cleanup := func() {}

	if cfg.RedisURL != "" {
		client, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		deps.Redis = client
		cleanup = func() {
			if err := client.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close redis client")
			}
		}
	} else {
		logger.Info("REDIS_URL not set, rate limiting disabled")
	}

	breaker := resilience.NewBreaker(resilience.DefaultBreakerConfig("redis-ratelimit"), zlog)
	deps.Limiter = ratelimit.NewLimiter(deps.Redis, breaker, ratelimit.Config{
		Limit:  cfg.RateLimitPerWindow,
		Window: cfg.RateLimitWindow,
	}, zlog.With().Str("component", "ratelimit").Logger())

	return deps, cleanup, nil
}

func newRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond

	client := redis.NewClient(opts)

	// Redis is optional at runtime; an unreachable server is logged, not fatal.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis not reachable at startup, rate limiter will fail open")
	} else {
		logger.Info("Connected to Redis")
	}
	return client, nil
}
