package middleware

import (
	"fmt"
	"strings"

	"idgen_server/pkg/apperr"
	"idgen_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTAuth validates HS256 bearer tokens signed with secret and stores the
// "sub" claim in c.Locals("subject"). Expiry and not-before are enforced by
// the jwt parser.
func JWTAuth(secret string) fiber.Handler {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
	)

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			return apperr.Unauthorized("missing authorization")
		}

		token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if len(key) == 0 {
				return nil, fmt.Errorf("JWT secret not configured")
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			logger.WithError(err).Warn("JWT validation failed")
			return apperr.InvalidToken("invalid token")
		}

		if sub, err := token.Claims.GetSubject(); err == nil && sub != "" {
			c.Locals("subject", sub)
		}
		return c.Next()
	}
}
