package middleware

import (
	"strconv"

	"idgen_server/pkg/apperr"
	"idgen_server/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// RateLimit limits requests per authenticated subject, falling back to the
// client IP for anonymous callers.
func RateLimit(limiter *ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := "ip:" + c.IP()
		if sub, ok := c.Locals("subject").(string); ok && sub != "" {
			key = "sub:" + sub
		}

		d := limiter.Allow(c.UserContext(), key)
		c.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			retryAfter := int(d.ResetIn.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return apperr.RateLimited(retryAfter)
		}
		return c.Next()
	}
}
