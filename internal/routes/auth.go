package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/project-campus/campus/internal/auth"
)

// RegisterAuthRoutes wires authentication endpoints. Logout and me sit behind jwt.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter, jwt fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/signup", h.Signup)
	group.Post("/send-code", h.SendCode)
	group.Post("/verify-code", h.VerifyCode)
	group.Post("/refresh", h.Refresh)
	group.Post("/logout", jwt, h.Logout)
	group.Get("/me", jwt, h.Me)
}
