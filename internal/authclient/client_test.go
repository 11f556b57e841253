package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/project-campus/campus/internal/logging"
)

func TestLoginSuccess(t *testing.T) {
	var got LoginRequest
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		headers = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access":"a","refresh":"r","expires_in":900,"user":{"id":"1","username":"alice","email":"alice@uni.edu"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second, logging.Discard())
	ctx := WithRequestID(context.Background(), "req-1")
	session, err := c.Login(ctx, LoginRequest{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.Username != "alice" || got.Password != "pw" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if session.User.Username != "alice" || session.ExpiresIn != 900 {
		t.Fatalf("unexpected session %+v", session)
	}
	if headers.Get("Idempotency-Key") == "" || headers.Get("X-Request-ID") != "req-1" {
		t.Fatalf("missing forwarded headers: %v", headers)
	}
	if headers.Get("Content-Type") != "application/json" {
		t.Fatalf("expected json content type, got %q", headers.Get("Content-Type"))
	}
}

func TestNon2xxCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Verification failed."}`))
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second, logging.Discard()).VerifyCode(context.Background(), VerifyCodeRequest{AcademicEmail: "a@uni.edu", Code: "000000"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected APIError, got %v", err)
	}
	if msg, ok := MessageOf(err); !ok || msg != "Verification failed." {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestNon2xxWithUnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second, logging.Discard()).SendCode(context.Background(), SendCodeRequest{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway {
		t.Fatalf("expected APIError, got %v", err)
	}
	if _, ok := MessageOf(err); ok {
		t.Fatalf("expected no message for unparseable body")
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second, logging.Discard()).Register(context.Background(), RegisterRequest{Username: "alice"})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if _, ok := MessageOf(err); ok {
		t.Fatalf("transport errors carry no server message")
	}
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&APIError{Status: 400, Message: "username already exists"}, "username already exists"},
		{&APIError{Status: 500}, "Signup failed"},
		{errors.Join(ErrTransport, errors.New("dial tcp")), GenericMessage},
		{errors.New("decode failure"), GenericMessage},
	}
	for _, tc := range cases {
		if got := UserMessage(tc.err, "Signup failed"); got != tc.want {
			t.Fatalf("UserMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestTimeoutIsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	err := New(srv.URL, 50*time.Millisecond, logging.Discard()).VerifyCode(context.Background(), VerifyCodeRequest{})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport after timeout, got %v", err)
	}
	if got := UserMessage(err, "Verification failed."); got != GenericMessage {
		t.Fatalf("expected generic message, got %q", got)
	}
}
