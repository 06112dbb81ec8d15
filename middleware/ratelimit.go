package middleware

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"thyknow/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per user kept in redis.
type RateLimiter struct {
	redisClient *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{redisClient: client}
}

// Limit allows limit requests per window per user (by client IP before a user is known).
// Redis errors let the request through.
func (rl *RateLimiter) Limit(keySuffix string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		who := UserID(c)
		if who == "" {
			who = c.IP()
		}
		key := fmt.Sprintf("rate_limit:%s:%s", keySuffix, who)
		ctx := c.UserContext()

		count, err := rl.redisClient.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("⚠️ [RATE_LIMIT] redis unavailable, allowing request: %v", err)
			return c.Next()
		}
		if count == 1 {
			if err := rl.redisClient.Expire(ctx, key, window).Err(); err != nil {
				log.Printf("⚠️ [RATE_LIMIT] failed to set window on %s: %v", key, err)
			}
		}

		if count > int64(limit) {
			ttl, err := rl.redisClient.TTL(ctx, key).Result()
			if err != nil {
				log.Printf("⚠️ [RATE_LIMIT] redis unavailable, allowing request: %v", err)
				return c.Next()
			}
			if ttl < 0 {
				// the window was never set, so the counter would block forever
				if err := rl.redisClient.Expire(ctx, key, window).Err(); err != nil {
					log.Printf("⚠️ [RATE_LIMIT] failed to set window on %s: %v", key, err)
				}
				ttl = window
			}
			metrics.RateLimited.Inc()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(ttl.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate_limited",
				"message":     "Too many requests",
				"retry_after": int(ttl.Seconds()),
			})
		}
		return c.Next()
	}
}
