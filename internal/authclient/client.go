// Package authclient calls the auth API on behalf of the web frontend.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxResponseBytes = 1 << 20

// GenericMessage is shown when the API could not be reached.
const GenericMessage = "An error occurred. Please try again later."

// ErrTransport wraps failures that never produced an HTTP response.
var ErrTransport = errors.New("auth api unreachable")

// APIError is a non-2xx answer. Message is empty when the body had none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth api: status %d", e.Status)
	}
	return fmt.Sprintf("auth api: status %d: %s", e.Status, e.Message)
}

// MessageOf returns the server-reported message carried by err, if any.
func MessageOf(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

// UserMessage picks the text a form shows for err: the server's message, else
// fallback for other API rejections, else GenericMessage.
func UserMessage(err error, fallback string) string {
	if msg, ok := MessageOf(err); ok {
		return msg
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return fallback
	}
	return GenericMessage
}

// User mirrors the API's public user projection.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session is the login and signup response.
type Session struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	ExpiresIn int64  `json:"expires_in"`
	User      User   `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SimpleSignupRequest is the legacy two-field signup form.
type SimpleSignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type SendCodeRequest struct {
	Username      string `json:"username"`
	AcademicEmail string `json:"academicEmail"`
	PersonalEmail string `json:"personalEmail"`
}

type VerifyCodeRequest struct {
	AcademicEmail string `json:"academicEmail"`
	Code          string `json:"code"`
}

// RegisterRequest is the final step of the signup wizard.
type RegisterRequest struct {
	Username      string `json:"username"`
	AcademicEmail string `json:"academicEmail"`
	PersonalEmail string `json:"personalEmail"`
	Code          string `json:"code"`
	Password      string `json:"password"`
}

// Client talks JSON to the auth API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Login posts credentials to /api/auth/login.
func (c *Client) Login(ctx context.Context, req LoginRequest) (Session, error) {
	var s Session
	err := c.post(ctx, "/api/auth/login", req, &s)
	return s, err
}

// SignupSimple posts the legacy form to /api/auth/signup.
func (c *Client) SignupSimple(ctx context.Context, req SimpleSignupRequest) error {
	return c.post(ctx, "/api/auth/signup", req, nil)
}

// SendCode asks the API to email a verification code.
func (c *Client) SendCode(ctx context.Context, req SendCodeRequest) error {
	return c.post(ctx, "/api/auth/send-code", req, nil)
}

// VerifyCode checks a verification code.
func (c *Client) VerifyCode(ctx context.Context, req VerifyCodeRequest) error {
	return c.post(ctx, "/api/auth/verify-code", req, nil)
}

// Register completes the wizard signup.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	var s Session
	err := c.post(ctx, "/api/auth/signup", req, &s)
	return s, err
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	if id := RequestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("auth api call failed", slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Message string `json:"message"`
		}
		// Unparseable bodies count as having no message.
		_ = json.Unmarshal(raw, &failure)
		c.logger.Debug("auth api rejected request",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", failure.Message),
		)
		return &APIError{Status: resp.StatusCode, Message: failure.Message}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

type requestIDKey struct{}

// WithRequestID attaches a request id that is forwarded as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id set by WithRequestID.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
