package login

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/project-campus/campus/internal/authclient"
)

type fakeAPI struct {
	calls   []authclient.LoginRequest
	session authclient.Session
	err     error
	// block, when set, holds Login until closed.
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeAPI) Login(_ context.Context, req authclient.LoginRequest) (authclient.Session, error) {
	f.calls = append(f.calls, req)
	if f.block != nil {
		close(f.entered)
		<-f.block
	}
	return f.session, f.err
}

func TestSubmitSendsFieldsAsEntered(t *testing.T) {
	api := &fakeAPI{session: authclient.Session{User: authclient.User{Username: "alice"}}}
	c := New(api)
	c.SetCredentials("", "")

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(api.calls) != 1 || api.calls[0] != (authclient.LoginRequest{}) {
		t.Fatalf("expected empty fields to be sent as-is, got %+v", api.calls)
	}
	if !c.Done() || c.ErrorText() != "" || c.Loading() {
		t.Fatalf("unexpected state done=%v err=%q loading=%v", c.Done(), c.ErrorText(), c.Loading())
	}
	if s, ok := c.Session(); !ok || s.User.Username != "alice" {
		t.Fatalf("expected session to be recorded, got %+v", s)
	}
}

func TestSubmitFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &authclient.APIError{Status: 401, Message: "Invalid credentials"}, "Invalid credentials"},
		{"no message", &authclient.APIError{Status: 500}, "Login failed"},
		{"transport", fmt.Errorf("%w: connection refused", authclient.ErrTransport), "An error occurred. Please try again later."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(&fakeAPI{err: tc.err})
			c.SetCredentials("alice", "wrong")
			if err := c.Submit(context.Background()); !errors.Is(err, tc.err) {
				t.Fatalf("expected underlying error, got %v", err)
			}
			if c.ErrorText() != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, c.ErrorText())
			}
			if c.Loading() || c.Done() {
				t.Fatalf("loading and done must be false after failure")
			}
		})
	}
}

func TestErrorClearedOnNextAttempt(t *testing.T) {
	api := &fakeAPI{err: &authclient.APIError{Status: 401, Message: "Invalid credentials"}}
	c := New(api)
	_ = c.Submit(context.Background())

	api.err = nil
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if c.ErrorText() != "" {
		t.Fatalf("expected error cleared, got %q", c.ErrorText())
	}
}

func TestSubmitWhileLoadingIsRejected(t *testing.T) {
	api := &fakeAPI{block: make(chan struct{}), entered: make(chan struct{})}
	c := New(api)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()
	<-api.entered

	if !c.Loading() {
		t.Fatalf("expected loading during the call")
	}
	if err := c.Submit(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if len(api.calls) != 1 {
		t.Fatalf("busy submit must not call the API, got %d calls", len(api.calls))
	}
}
