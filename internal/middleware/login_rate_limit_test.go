package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func TestLoginRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/login", LoginRateLimit(cache, 2), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	attempt := func(username string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"username":"`+username+`"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == fiber.StatusTooManyRequests && resp.Header.Get(fiber.HeaderRetryAfter) == "" {
			t.Fatalf("expected Retry-After header on limited response")
		}
		return resp.StatusCode
	}

	for i := 0; i < 2; i++ {
		if status := attempt("Alice"); status != fiber.StatusNoContent {
			t.Fatalf("attempt %d: expected %d got %d", i+1, fiber.StatusNoContent, status)
		}
	}
	if status := attempt("alice"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected %d got %d", fiber.StatusTooManyRequests, status)
	}
	if status := attempt("bob"); status != fiber.StatusNoContent {
		t.Fatalf("other users should not be limited, got %d", status)
	}

	mr.FastForward(loginRateWindow)
	if status := attempt("alice"); status != fiber.StatusNoContent {
		t.Fatalf("expected window reset, got %d", status)
	}
}

func TestLoginRateLimitWithoutCache(t *testing.T) {
	app := fiber.New()
	app.Post("/login", LoginRateLimit(nil, 1), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/login", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != fiber.StatusNoContent {
			t.Fatalf("expected pass-through, got %d", resp.StatusCode)
		}
	}
}
