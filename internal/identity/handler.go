package identity

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes identity lookups used by the signup wizard.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Available answers whether ?username= and ?academicEmail= are still free.
func (h *Handler) Available(c *fiber.Ctx) error {
	avail, err := h.service.Available(c.UserContext(), c.Query("username"), c.Query("academicEmail"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(avail)
}
