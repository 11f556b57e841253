package signup

import (
	"context"
	"sync"

	"github.com/project-campus/campus/internal/authclient"
)

// SimpleAPI is the part of the auth client the legacy form needs.
type SimpleAPI interface {
	SignupSimple(ctx context.Context, req authclient.SimpleSignupRequest) error
}

// Simple is the legacy username and email signup form.
type Simple struct {
	api SimpleAPI

	mu       sync.Mutex
	username string
	email    string
	errMsg   string
	loading  bool
	done     bool
}

// NewSimple returns an empty legacy form.
func NewSimple(api SimpleAPI) *Simple {
	return &Simple{api: api}
}

// SetFields replaces the form fields.
func (s *Simple) SetFields(username, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username, s.email = username, email
}

// Fields returns the current username and email.
func (s *Simple) Fields() (username, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username, s.email
}

// Submit posts the form. Done reports success; the page then moves to login.
func (s *Simple) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.loading = true
	s.errMsg = ""
	req := authclient.SimpleSignupRequest{Username: s.username, Email: s.email}
	s.mu.Unlock()

	err := s.api.SignupSimple(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = authclient.UserMessage(err, FailedMessage)
		return err
	}
	s.done = true
	return nil
}

func (s *Simple) ErrorText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Simple) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Simple) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
