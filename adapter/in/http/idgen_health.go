package http

import (
	"context"
	"time"

	"idgen_server/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	workerID int64
	redis    *redis.Client
	limiter  *ratelimit.Limiter
}

// NewHealthHandler creates a health handler. redis and limiter may be nil.
func NewHealthHandler(workerID int64, redis *redis.Client, limiter *ratelimit.Limiter) *HealthHandler {
	return &HealthHandler{
		workerID: workerID,
		redis:    redis,
		limiter:  limiter,
	}
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"worker_id": h.workerID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports readiness. Redis only backs rate limiting, which fails open,
// so an unhealthy Redis degrades readiness instead of failing it.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"generator": "healthy"}
	status := "ready"

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			status = "degraded"
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "not configured"
	}

	if h.limiter != nil && h.limiter.Enabled() {
		checks["ratelimit_breaker"] = h.limiter.BreakerState()
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"worker_id": h.workerID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
