package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"idgen_server/pkg/apperr"
	"idgen_server/pkg/snowflake"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Generator
	WorkerID int64
	BatchMax int

	// Redis (optional, rate limiting)
	RedisURL           string
	RateLimitPerWindow int
	RateLimitWindow    time.Duration

	// JWT (optional, bearer auth on /api/v1)
	JWTSecret string

	// CORS
	AllowedOrigins []string

	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment. The worker ID is parsed
// strictly: a malformed value is an error rather than a silent default,
// because two processes falling back to the same ID would mint duplicates.
// Errors are returned as *apperr.AppError with CodeConfigError.
func Load() (*Config, error) {
	workerID, err := getEnvInt64Strict([]string{"ID_WORKER_ID", "WORKER_ID"}, 0)
	if err != nil {
		return nil, apperr.ConfigError(err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		WorkerID: workerID,
		BatchMax: getEnvInt("ID_BATCH_MAX", 1000),

		RedisURL:           getEnv("REDIS_URL", ""),
		RateLimitPerWindow: getEnvInt("RATE_LIMIT_PER_WINDOW", 600),
		RateLimitWindow:    time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SEC", 60)) * time.Second,

		JWTSecret: getEnv("ID_JWT_SECRET", ""),

		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SEC", 30)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperr.ConfigError(err)
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise surface only at first use.
func (c *Config) Validate() error {
	if c.WorkerID < 0 || c.WorkerID > snowflake.MaxWorkerID {
		return fmt.Errorf("ID_WORKER_ID must be between 0 and %d, got %d", snowflake.MaxWorkerID, c.WorkerID)
	}
	if c.BatchMax < 1 {
		return fmt.Errorf("ID_BATCH_MAX must be positive, got %d", c.BatchMax)
	}
	if c.RateLimitPerWindow < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_WINDOW must be positive, got %d", c.RateLimitPerWindow)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SEC must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvInt64Strict returns the first set key, failing on unparsable values.
func getEnvInt64Strict(keys []string, defaultValue int64) (int64, error) {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			continue
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		return n, nil
	}
	return defaultValue, nil
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
