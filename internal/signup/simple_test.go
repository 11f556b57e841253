package signup

import (
	"context"
	"testing"

	"github.com/project-campus/campus/internal/authclient"
)

func TestSimpleSignup(t *testing.T) {
	api := &fakeAPI{}
	s := NewSimple(api)
	s.SetFields("alice", "alice@uni.edu")

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !s.Done() || s.ErrorText() != "" || s.Loading() {
		t.Fatalf("unexpected state done=%v err=%q", s.Done(), s.ErrorText())
	}
	want := authclient.SimpleSignupRequest{Username: "alice", Email: "alice@uni.edu"}
	if len(api.simple) != 1 || api.simple[0] != want {
		t.Fatalf("unexpected payload %+v", api.simple)
	}
}

func TestSimpleSignupFailure(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&authclient.APIError{Status: 400, Message: "username and password are required"}, "username and password are required"},
		{&authclient.APIError{Status: 500}, "Signup failed"},
		{authclient.ErrTransport, "An error occurred. Please try again later."},
	}
	for _, tc := range cases {
		s := NewSimple(&fakeAPI{simpleErr: tc.err})
		if err := s.Submit(context.Background()); err == nil {
			t.Fatalf("expected failure")
		}
		if s.ErrorText() != tc.want || s.Done() || s.Loading() {
			t.Fatalf("unexpected state err=%q done=%v", s.ErrorText(), s.Done())
		}
	}
}
