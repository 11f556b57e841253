package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const loginRateWindow = time.Minute

// LoginRateLimit limits login attempts per username (or client IP when the body has
// none) using Redis. Without Redis it is a no-op; on Redis errors it fails open.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			Username string `json:"username"`
		}
		_ = json.Unmarshal(c.Body(), &req)
		subject := strings.ToLower(strings.TrimSpace(req.Username))
		if subject == "" {
			subject = c.IP()
		}
		key := "rl:login:" + subject
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, loginRateWindow)
		}
		if cnt > int64(maxPerMin) {
			if ttl, err := cache.TTL(c.UserContext(), key).Result(); err == nil && ttl > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(ttl.Seconds())+1))
			}
			return fiber.NewError(http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
		}
		return c.Next()
	}
}
