package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/project-campus/campus/internal/identity"
)

// RegisterIdentityRoutes wires identity lookups used by the signup wizard.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler) {
	r.Get("/identity/available", h.Available)
}
