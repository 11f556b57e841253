package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/project-campus/campus/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, *int) {
	t.Helper()
	mr := miniredis.RunT(t)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	calls := 0
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/api/auth/signup", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": calls})
	})
	app.Post("/api/auth/send-code", func(c *fiber.Ctx) error {
		calls++
		if c.Query("fail") != "" {
			return fiber.NewError(fiber.StatusBadRequest, "Failed to send verification code.")
		}
		return c.JSON(fiber.Map{"call": calls})
	})

	return app, &calls
}

func post(t *testing.T, app *fiber.App, path, key string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestIdempotencyPassesThroughWithoutHeader(t *testing.T) {
	app, calls := setupTestApp(t)

	post(t, app, "/api/auth/signup", "")
	status, _ := post(t, app, "/api/auth/signup", "")
	if status != fiber.StatusCreated {
		t.Fatalf("expected %d got %d", fiber.StatusCreated, status)
	}
	if *calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d", *calls)
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, calls := setupTestApp(t)

	status, payload := post(t, app, "/api/auth/signup", "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected status %d got %d", fiber.StatusCreated, status)
	}

	status, cached := post(t, app, "/api/auth/signup", "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected cached status %d got %d", fiber.StatusCreated, status)
	}
	if cached != payload {
		t.Fatalf("expected cached payload %s got %s", payload, cached)
	}
	if *calls != 1 {
		t.Fatalf("handler should run once, ran %d", *calls)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(cached), &decoded); err != nil {
		t.Fatalf("cached payload invalid json: %v", err)
	}
}

func TestIdempotencyKeyIsScopedToRoute(t *testing.T) {
	app, calls := setupTestApp(t)

	post(t, app, "/api/auth/signup", "shared")
	status, _ := post(t, app, "/api/auth/send-code", "shared")
	if status != fiber.StatusOK {
		t.Fatalf("expected %d got %d", fiber.StatusOK, status)
	}
	if *calls != 2 {
		t.Fatalf("expected both routes to run, ran %d", *calls)
	}
}

func TestIdempotencyReleasesKeyOnError(t *testing.T) {
	app, calls := setupTestApp(t)

	status, _ := post(t, app, "/api/auth/send-code?fail=1", "retry")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, status)
	}
	status, _ = post(t, app, "/api/auth/send-code", "retry")
	if status != fiber.StatusOK {
		t.Fatalf("retry should reach the handler, got %d", status)
	}
	if *calls != 2 {
		t.Fatalf("expected two handler runs, got %d", *calls)
	}
}
