package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Options tunes the Fiber application shared by the API and the web frontend.
type Options struct {
	AppName string
	Addr    string
	// Views renders templates; nil for the JSON-only API.
	Views fiber.Views
	// ErrorHandler overrides the default JSON {"message"} error body.
	ErrorHandler fiber.ErrorHandler
}

// Server wraps the Fiber application and its listen address.
type Server struct {
	app  *fiber.App
	addr string
}

// New instantiates the HTTP server and delegates route wiring to setup.
func New(opts Options, setup func(*fiber.App) error) (*Server, error) {
	handler := opts.ErrorHandler
	if handler == nil {
		handler = ErrorHandler
	}
	app := fiber.New(fiber.Config{
		AppName:               opts.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		Views:                 opts.Views,
		ErrorHandler:          handler,
		DisableStartupMessage: true,
	})

	if setup != nil {
		if err := setup(app); err != nil {
			return nil, err
		}
	}

	return &Server{app: app, addr: opts.Addr}, nil
}

// ErrorHandler renders every error as {"message": "..."}. Errors that are not
// fiber errors become a 500 without leaking their text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	message := "Something went wrong. Please try again later."

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	}
	return c.Status(status).JSON(fiber.Map{"message": message})
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
