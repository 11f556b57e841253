package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/project-campus/campus/internal/auth"
)

// JWTAuth returns a middleware that validates access tokens and rejects revoked ones.
func JWTAuth(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		user, err := svc.Authenticate(c.UserContext(), tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "token invalidated")
		}

		c.Locals(auth.LocalUserID, user.ID)
		c.Locals(auth.LocalUser, user)
		return c.Next()
	}
}
