package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/project-campus/campus/internal/identity"
	"github.com/project-campus/campus/internal/verification"
)

// Keys under which the JWT middleware stores the caller in fiber locals.
const (
	LocalUserID = "user_id"
	LocalUser   = "user"
)

// Handler exposes the authentication endpoints consumed by the web frontend.
type Handler struct {
	svc    *Service
	codes  *verification.Service
	logger *slog.Logger
}

// NewHandler builds the auth HTTP handler.
func NewHandler(svc *Service, codes *verification.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, codes: codes, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signupRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	Email         string `json:"email"`
	AcademicEmail string `json:"academicEmail"`
	PersonalEmail string `json:"personalEmail"`
	Code          string `json:"code"`
}

type sendCodeRequest struct {
	Username      string `json:"username"`
	AcademicEmail string `json:"academicEmail"`
	PersonalEmail string `json:"personalEmail"`
}

type verifyCodeRequest struct {
	AcademicEmail string `json:"academicEmail"`
	Code          string `json:"code"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Login validates credentials and returns a token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	session, err := h.svc.Login(c.UserContext(), identity.Credentials{Username: req.Username, Password: req.Password})
	if err != nil {
		return h.fail(c, "auth.login", err)
	}
	h.logger.Info("auth.login completed", slog.String("user_id", session.User.ID))
	return c.Status(http.StatusOK).JSON(session)
}

// Signup creates an account from either the wizard or the legacy signup form.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	academic := req.AcademicEmail
	if academic == "" {
		academic = req.Email
	}
	session, err := h.svc.Signup(c.UserContext(), SignupInput{
		Username:      req.Username,
		Password:      req.Password,
		AcademicEmail: academic,
		PersonalEmail: req.PersonalEmail,
		Code:          req.Code,
	})
	if err != nil {
		return h.fail(c, "auth.signup", err)
	}
	h.logger.Info("auth.signup completed",
		slog.String("user_id", session.User.ID),
		slog.String("username", session.User.Username),
		slog.Int("status", http.StatusCreated),
	)
	return c.Status(http.StatusCreated).JSON(session)
}

// SendCode emails a verification code to the academic address.
func (h *Handler) SendCode(c *fiber.Ctx) error {
	var req sendCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	err := h.codes.Send(c.UserContext(), verification.SendRequest{
		Username:      req.Username,
		AcademicEmail: req.AcademicEmail,
		PersonalEmail: req.PersonalEmail,
	})
	if err != nil {
		return h.fail(c, "auth.send_code", err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Verification code sent."})
}

// VerifyCode checks a verification code.
func (h *Handler) VerifyCode(c *fiber.Ctx) error {
	var req verifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.codes.Verify(c.UserContext(), req.AcademicEmail, req.Code); err != nil {
		return h.fail(c, "auth.verify_code", err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Code verified.", "verified": true})
}

// Refresh issues a new access token from a refresh token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Refresh == "" {
		return fiber.NewError(http.StatusBadRequest, "refresh token is required")
	}
	token, exp, err := h.svc.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return h.fail(c, "auth.refresh", err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"access": token, "expires_in": exp})
}

// Logout invalidates the caller's tokens. Requires the JWT middleware and the
// caller's refresh token in the body.
func (h *Handler) Logout(c *fiber.Ctx) error {
	uid, _ := c.Locals(LocalUserID).(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
	}
	var req refreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	if err := h.svc.Logout(c.UserContext(), uid, req.Refresh); err != nil {
		return h.fail(c, "auth.logout", err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Logged out"})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, ok := c.Locals(LocalUser).(identity.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
	}
	return c.Status(http.StatusOK).JSON(ViewOf(user))
}

func (h *Handler) fail(c *fiber.Ctx, op string, err error) error {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", slog.Any("error", err), slog.String("path", c.Path()))
		return fiber.NewError(status, "Something went wrong. Please try again later.")
	}
	h.logger.Debug(op+" rejected", slog.String("reason", err.Error()), slog.Int("status", status))
	return fiber.NewError(status, err.Error())
}

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, verification.ErrTooManyAttempts), errors.Is(err, verification.ErrResendTooSoon):
		return http.StatusTooManyRequests
	case errors.Is(err, identity.ErrUsernameTaken),
		errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, identity.ErrMissingCredentials),
		errors.Is(err, identity.ErrNotFound),
		errors.Is(err, ErrRefreshRequired),
		errors.Is(err, ErrInvalidRefresh),
		errors.Is(err, verification.ErrMissingFields),
		errors.Is(err, verification.ErrNotAcademic),
		errors.Is(err, verification.ErrNoCode),
		errors.Is(err, verification.ErrCodeMismatch),
		errors.Is(err, verification.ErrNotVerified):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
