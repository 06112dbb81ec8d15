// middleware/auth.go
package middleware

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by UserContextMiddleware.
const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
	LocalLanguage = "language_code"
)

type UserContextOptions struct {
	BotToken     string
	MaxAge       time.Duration
	ServiceToken string
	Now          func() time.Time
}

// UserContextMiddleware resolves the calling user either from signed Telegram init data
// (X-Telegram-Init-Data) or from X-User-ID forwarded by the authenticated gateway.
func UserContextMiddleware(o UserContextOptions) fiber.Handler {
	now := o.Now
	if now == nil {
		now = time.Now
	}

	return func(c *fiber.Ctx) error {
		if initData := c.Get("X-Telegram-Init-Data"); initData != "" {
			if o.BotToken == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "telegram authentication is not configured",
				})
			}
			u, err := ValidateInitData(initData, o.BotToken, o.MaxAge, now())
			if err != nil {
				log.Printf("❌ [USER_CTX] init data rejected on %s: %v", c.Path(), err)
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid telegram init data",
					"cause": err.Error(),
				})
			}
			c.Locals(LocalUserID, strconv.FormatInt(u.ID, 10))
			c.Locals(LocalUsername, u.Username)
			c.Locals(LocalLanguage, u.LanguageCode)
			return c.Next()
		}

		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Printf("❌ [USER_CTX] no user identity on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Telegram-Init-Data or X-User-ID",
			})
		}
		if !tokenMatches(bearerToken(c), o.ServiceToken) {
			log.Printf("🚫 [USER_CTX] X-User-ID without gateway token on %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "X-User-ID must come through the gateway",
			})
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalUsername, c.Get("X-Username"))
		c.Locals(LocalLanguage, c.Get("X-Language-Code"))
		return c.Next()
	}
}

// UserID reads the id stored by UserContextMiddleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

func Username(c *fiber.Ctx) string {
	v, _ := c.Locals(LocalUsername).(string)
	return v
}

func Language(c *fiber.Ctx) string {
	v, _ := c.Locals(LocalLanguage).(string)
	return v
}
