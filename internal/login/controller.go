// Package login holds the state behind the login form.
package login

import (
	"context"
	"errors"
	"sync"

	"github.com/project-campus/campus/internal/authclient"
)

// FailedMessage is shown when the API rejects the login without a message.
const FailedMessage = "Login failed"

// ErrBusy rejects a submit while another one is in flight.
var ErrBusy = errors.New("login already in progress")

// API is the part of the auth client the form needs.
type API interface {
	Login(ctx context.Context, req authclient.LoginRequest) (authclient.Session, error)
}

// Controller tracks one login form. Fields are sent exactly as entered.
type Controller struct {
	api API

	mu       sync.Mutex
	username string
	password string
	errMsg   string
	loading  bool
	session  *authclient.Session
}

// New returns a controller for an empty form.
func New(api API) *Controller {
	return &Controller{api: api}
}

// SetCredentials replaces the form fields.
func (c *Controller) SetCredentials(username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username, c.password = username, password
}

// Username returns the current username field.
func (c *Controller) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

// Submit posts the credentials. On failure the display message is available from
// Error and the underlying error is returned.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.loading = true
	c.errMsg = ""
	req := authclient.LoginRequest{Username: c.username, Password: c.password}
	c.mu.Unlock()

	session, err := c.api.Login(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.errMsg = authclient.UserMessage(err, FailedMessage)
		return err
	}
	c.session = &session
	return nil
}

// ErrorText is the message currently shown above the form.
func (c *Controller) ErrorText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Loading reports whether a submit is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Done reports whether the last submit succeeded.
func (c *Controller) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Session returns the session from a successful submit.
func (c *Controller) Session() (authclient.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return authclient.Session{}, false
	}
	return *c.session, true
}
