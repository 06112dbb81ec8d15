// middleware/gateway.go
package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// bearerToken returns the token of an "Authorization: Bearer <token>" header, or the raw value.
func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if t := strings.TrimPrefix(h, "Bearer "); t != h {
		return strings.TrimSpace(t)
	}
	return strings.TrimSpace(h)
}

func tokenMatches(got, expected string) bool {
	return expected != "" && subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

// GatewayAuthMiddleware validates the Bearer token sent by the gateway / messaging layer.
// With no token configured every request is refused.
func GatewayAuthMiddleware(expectedToken string) fiber.Handler {
	if expectedToken == "" {
		log.Println("⚠️ [GATEWAY_AUTH] SERVICE_TOKEN is not set, service routes are disabled")
	}

	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			log.Printf("🚫 [GATEWAY_AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}
		if !tokenMatches(token, expectedToken) {
			log.Printf("❌ [GATEWAY_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}
		return c.Next()
	}
}
