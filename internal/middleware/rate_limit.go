package middleware

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// MutationRateLimit caps mutating ledger requests per account (falling back
// to client IP) using a Redis counter with a one-minute window. Rate limiting
// fails open on cache errors: a degraded cache must never block the ledger.
func MutationRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 30
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		subject := c.Params("accountId")
		if subject == "" {
			var req struct {
				SourceAccountID string `json:"source_account_id"`
			}
			_ = c.BodyParser(&req)
			subject = req.SourceAccountID
		}
		if subject == "" {
			subject = c.IP()
		}
		key := "rl:mutation:" + subject
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if err != nil {
			return c.Next()
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many operations for this account, try again later")
		}
		return c.Next()
	}
}
