// middleware/auth.go
package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// ServiceTokenMiddleware gates the read API behind a shared service token.
// With an empty expected token the API stays open, matching the original
// unauthenticated deployment.
func ServiceTokenMiddleware(expectedToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if expectedToken == "" {
			return c.Next()
		}

		token := c.Get("X-Service-Token")
		if token != expectedToken {
			log.Printf("❌ [AUTH] invalid or missing X-Service-Token on %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid X-Service-Token",
			})
		}

		return c.Next()
	}
}
