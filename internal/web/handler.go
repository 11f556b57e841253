// Package web serves the server-rendered landing, login and signup pages.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/project-campus/campus/internal/authclient"
	"github.com/project-campus/campus/internal/i18n"
	"github.com/project-campus/campus/internal/login"
	"github.com/project-campus/campus/internal/middleware"
	"github.com/project-campus/campus/internal/signup"
)

// API is everything the pages ask of the auth API.
type API interface {
	login.API
	signup.WizardAPI
	signup.SimpleAPI
}

// Handler renders the auth pages. Page state lives in the submitted form; nothing
// is kept between requests.
type Handler struct {
	api     API
	appName string
	logger  *slog.Logger
}

// NewHandler builds the page handlers.
func NewHandler(api API, appName string, logger *slog.Logger) *Handler {
	return &Handler{api: api, appName: appName, logger: logger}
}

// Register mounts middleware, static assets and pages.
func (h *Handler) Register(app *fiber.App) {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(h.logger))
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   staticRoot(),
		MaxAge: 3600,
	}))

	app.Get("/", h.Landing)
	app.Get("/login", h.LoginPage)
	app.Post("/login", h.Login)
	app.Get("/signup", h.SignupPage)
	app.Post("/signup", h.Signup)
	app.Get("/signup/simple", h.SimplePage)
	app.Post("/signup/simple", h.SimpleSignup)
}

// Landing renders the marketing page.
func (h *Handler) Landing(c *fiber.Ctx) error {
	return c.Render("landing", h.page(h.lang(c), c.Path(), "landing"), layout)
}

// LoginPage renders an empty login form.
func (h *Handler) LoginPage(c *fiber.Ctx) error {
	p := loginPage{base: h.page(h.lang(c), c.Path(), "auth.Login")}
	if c.Query("registered") != "" {
		p.Notice = p.T.Get("registered")
	}
	return c.Render("login", p, layout)
}

// Login submits the credentials and re-renders the form with the outcome.
func (h *Handler) Login(c *fiber.Ctx) error {
	ctrl := login.New(h.api)
	ctrl.SetCredentials(c.FormValue("username"), c.FormValue("password"))
	if err := ctrl.Submit(h.ctx(c)); err != nil {
		h.logger.Debug("login rejected", slog.String("reason", err.Error()))
	}

	p := loginPage{base: h.page(h.lang(c), c.Path(), "auth.Login"), Username: ctrl.Username()}
	p.Error = ctrl.ErrorText()
	status := http.StatusOK
	if session, ok := ctrl.Session(); ok {
		p.User = &session.User
	} else {
		status = http.StatusUnprocessableEntity
	}
	return c.Status(status).Render("login", p, layout)
}

// SignupPage starts the wizard at the identity step.
func (h *Handler) SignupPage(c *fiber.Ctx) error {
	return c.Render("signup", h.signupPage(c, signup.NewWizard(h.api)), layout)
}

// Signup advances the wizard restored from the posted form. action=resend asks for a
// new code instead.
func (h *Handler) Signup(c *fiber.Ctx) error {
	step, _ := strconv.Atoi(c.FormValue("step"))
	w := signup.Restore(h.api, step, signup.Form{})
	for _, name := range signup.Fields {
		if err := w.SetField(name, c.FormValue(name)); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	var err error
	if c.FormValue("action") == "resend" {
		err = w.Resend(h.ctx(c))
	} else {
		err = w.Submit(h.ctx(c))
	}
	if err != nil {
		h.logger.Debug("signup step rejected",
			slog.String("step", w.Step().String()),
			slog.String("reason", err.Error()),
		)
	}

	if w.Completed() {
		return c.Redirect(loginURL(h.lang(c), true), http.StatusSeeOther)
	}

	p := h.signupPage(c, w)
	status := http.StatusOK
	if err != nil {
		status = http.StatusUnprocessableEntity
	}
	return c.Status(status).Render("signup", p, layout)
}

// SimplePage renders the legacy two-field signup form.
func (h *Handler) SimplePage(c *fiber.Ctx) error {
	return c.Render("signup_simple", simplePage{base: h.page(h.lang(c), c.Path(), "auth.Signup")}, layout)
}

// SimpleSignup submits the legacy form and moves to login on success.
func (h *Handler) SimpleSignup(c *fiber.Ctx) error {
	ctrl := signup.NewSimple(h.api)
	ctrl.SetFields(c.FormValue("username"), c.FormValue("email"))
	if err := ctrl.Submit(h.ctx(c)); err != nil {
		h.logger.Debug("simple signup rejected", slog.String("reason", err.Error()))
	}
	if ctrl.Done() {
		return c.Redirect(loginURL(h.lang(c), false), http.StatusSeeOther)
	}

	username, email := ctrl.Fields()
	p := simplePage{base: h.page(h.lang(c), c.Path(), "auth.Signup"), Username: username, Email: email}
	p.Error = ctrl.ErrorText()
	return c.Status(http.StatusUnprocessableEntity).Render("signup_simple", p, layout)
}

// ErrorHandler renders failures as an HTML page.
func (h *Handler) ErrorHandler(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	message := authclient.GenericMessage
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	} else {
		h.logger.Error("page failed", slog.String("path", c.Path()), slog.Any("error", err))
	}

	p := errorPage{base: h.page(h.lang(c), c.Path(), "auth.Login"), Status: status}
	p.Title = http.StatusText(status)
	p.Error = message
	if rerr := c.Status(status).Render("error", p, layout); rerr != nil {
		return c.Status(status).SendString(message)
	}
	return nil
}

func (h *Handler) signupPage(c *fiber.Ctx, w *signup.Wizard) signupPage {
	form := w.Form()
	// Passwords are never echoed back into the page.
	form.Password, form.ConfirmPassword = "", ""
	p := signupPage{base: h.page(h.lang(c), c.Path(), "auth.Signup"), Step: int(w.Step()), Form: form}
	p.Error = w.ErrorText()
	return p
}

func (h *Handler) lang(c *fiber.Ctx) string {
	q := c.Query("lang")
	if q == "" && c.Method() == fiber.MethodPost {
		q = c.FormValue("lang")
	}
	return i18n.Resolve(q, c.Get(fiber.HeaderAcceptLanguage))
}

func (h *Handler) ctx(c *fiber.Ctx) context.Context {
	return authclient.WithRequestID(c.UserContext(), middleware.RequestIDFrom(c))
}

func loginURL(lang string, registered bool) string {
	q := url.Values{}
	if registered {
		q.Set("registered", "1")
	}
	if lang != i18n.DefaultLanguage {
		q.Set("lang", lang)
	}
	if len(q) == 0 {
		return "/login"
	}
	return "/login?" + q.Encode()
}
