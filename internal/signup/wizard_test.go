package signup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/project-campus/campus/internal/authclient"
)

type fakeAPI struct {
	mu        sync.Mutex
	sends     []authclient.SendCodeRequest
	verifies  []authclient.VerifyCodeRequest
	registers []authclient.RegisterRequest
	simple    []authclient.SimpleSignupRequest

	sendErr     error
	verifyErr   error
	registerErr error
	simpleErr   error

	block   chan struct{}
	entered chan struct{}
}

func (f *fakeAPI) wait() {
	if f.block != nil {
		close(f.entered)
		<-f.block
	}
}

func (f *fakeAPI) SendCode(_ context.Context, req authclient.SendCodeRequest) error {
	f.mu.Lock()
	f.sends = append(f.sends, req)
	f.mu.Unlock()
	f.wait()
	return f.sendErr
}

func (f *fakeAPI) VerifyCode(_ context.Context, req authclient.VerifyCodeRequest) error {
	f.mu.Lock()
	f.verifies = append(f.verifies, req)
	f.mu.Unlock()
	return f.verifyErr
}

func (f *fakeAPI) Register(_ context.Context, req authclient.RegisterRequest) (authclient.Session, error) {
	f.mu.Lock()
	f.registers = append(f.registers, req)
	f.mu.Unlock()
	if f.registerErr != nil {
		return authclient.Session{}, f.registerErr
	}
	return authclient.Session{Access: "a", User: authclient.User{Username: req.Username}}, nil
}

func (f *fakeAPI) SignupSimple(_ context.Context, req authclient.SimpleSignupRequest) error {
	f.mu.Lock()
	f.simple = append(f.simple, req)
	f.mu.Unlock()
	return f.simpleErr
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends) + len(f.verifies) + len(f.registers) + len(f.simple)
}

func set(t *testing.T, w *Wizard, fields map[string]string) {
	t.Helper()
	for name, value := range fields {
		if err := w.SetField(name, value); err != nil {
			t.Fatalf("SetField(%q): %v", name, err)
		}
	}
}

func TestIdentityStepAdvances(t *testing.T) {
	api := &fakeAPI{}
	w := NewWizard(api)
	set(t, w, map[string]string{FieldUsername: "alice", FieldAcademicEmail: "alice@uni.edu"})

	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if w.Step() != StepVerifyCode || w.ErrorText() != "" {
		t.Fatalf("expected step 1 with no error, got %v %q", w.Step(), w.ErrorText())
	}
	want := authclient.SendCodeRequest{Username: "alice", AcademicEmail: "alice@uni.edu"}
	if len(api.sends) != 1 || api.sends[0] != want {
		t.Fatalf("unexpected send-code payload %+v", api.sends)
	}
}

func TestIdentityStepRequiresFields(t *testing.T) {
	for _, fields := range []map[string]string{
		{},
		{FieldUsername: "alice"},
		{FieldAcademicEmail: "alice@uni.edu"},
		{FieldUsername: "", FieldAcademicEmail: "alice@uni.edu", FieldPersonalEmail: "a@example.com"},
	} {
		api := &fakeAPI{}
		w := NewWizard(api)
		set(t, w, fields)

		if err := w.Submit(context.Background()); !errors.Is(err, ErrIncomplete) {
			t.Fatalf("%v: expected ErrIncomplete, got %v", fields, err)
		}
		if w.ErrorText() != "Please fill in all required fields." {
			t.Fatalf("%v: unexpected error %q", fields, w.ErrorText())
		}
		if api.total() != 0 || w.Step() != StepCollectIdentity || w.Loading() {
			t.Fatalf("%v: validation failure must not call the API or change state", fields)
		}
	}
}

func TestVerifyFailureKeepsStep(t *testing.T) {
	api := &fakeAPI{verifyErr: &authclient.APIError{Status: 400, Message: "Verification failed."}}
	w := Restore(api, int(StepVerifyCode), Form{Username: "alice", AcademicEmail: "alice@uni.edu"})
	set(t, w, map[string]string{FieldCode: "000000"})

	if err := w.Submit(context.Background()); err == nil {
		t.Fatalf("expected verify failure")
	}
	if w.Step() != StepVerifyCode {
		t.Fatalf("expected step to remain 1, got %v", w.Step())
	}
	if w.ErrorText() != "Verification failed." {
		t.Fatalf("unexpected error %q", w.ErrorText())
	}
	if w.Loading() {
		t.Fatalf("loading must be false after a failed submission")
	}
	want := authclient.VerifyCodeRequest{AcademicEmail: "alice@uni.edu", Code: "000000"}
	if len(api.verifies) != 1 || api.verifies[0] != want {
		t.Fatalf("unexpected verify payload %+v", api.verifies)
	}
}

func TestVerifyRequiresCode(t *testing.T) {
	api := &fakeAPI{}
	w := Restore(api, int(StepVerifyCode), Form{Username: "alice", AcademicEmail: "alice@uni.edu"})
	if err := w.Submit(context.Background()); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if api.total() != 0 {
		t.Fatalf("empty code must not reach the API")
	}
}

func TestPasswordMismatch(t *testing.T) {
	api := &fakeAPI{}
	w := Restore(api, int(StepSetPassword), Form{Username: "alice", AcademicEmail: "alice@uni.edu", Code: "123456"})
	set(t, w, map[string]string{FieldPassword: "Aa1", FieldConfirmPassword: "Aa2"})

	if err := w.Submit(context.Background()); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if api.total() != 0 {
		t.Fatalf("mismatched passwords must not reach the API")
	}
	if w.ErrorText() != "Passwords do not match." {
		t.Fatalf("unexpected error %q", w.ErrorText())
	}

	set(t, w, map[string]string{FieldConfirmPassword: ""})
	if err := w.Submit(context.Background()); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete for empty confirmation, got %v", err)
	}
}

func TestFullFlowCompletes(t *testing.T) {
	api := &fakeAPI{}
	w := NewWizard(api)
	ctx := context.Background()

	set(t, w, map[string]string{FieldUsername: "alice", FieldAcademicEmail: "alice@uni.edu", FieldPersonalEmail: "alice@example.com"})
	if err := w.Submit(ctx); err != nil {
		t.Fatalf("identity: %v", err)
	}
	set(t, w, map[string]string{FieldCode: "123456"})
	if err := w.Submit(ctx); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if w.Step() != StepSetPassword {
		t.Fatalf("expected step 2, got %v", w.Step())
	}
	set(t, w, map[string]string{FieldPassword: "Aa1!", FieldConfirmPassword: "Aa1!"})
	if err := w.Submit(ctx); err != nil {
		t.Fatalf("register: %v", err)
	}

	if !w.Completed() || w.Step() != StepSetPassword {
		t.Fatalf("expected completed wizard at step 2, got completed=%v step=%v", w.Completed(), w.Step())
	}
	want := authclient.RegisterRequest{
		Username:      "alice",
		AcademicEmail: "alice@uni.edu",
		PersonalEmail: "alice@example.com",
		Code:          "123456",
		Password:      "Aa1!",
	}
	if len(api.registers) != 1 || api.registers[0] != want {
		t.Fatalf("unexpected signup payload %+v", api.registers)
	}
	if s, ok := w.Session(); !ok || s.User.Username != "alice" {
		t.Fatalf("expected session, got %+v", s)
	}
}

func TestFailureMessages(t *testing.T) {
	transport := fmt.Errorf("%w: dial tcp", authclient.ErrTransport)
	cases := []struct {
		name string
		step Step
		api  *fakeAPI
		want string
	}{
		{"send fallback", StepCollectIdentity, &fakeAPI{sendErr: &authclient.APIError{Status: 500}}, "Failed to send verification code."},
		{"send message", StepCollectIdentity, &fakeAPI{sendErr: &authclient.APIError{Status: 400, Message: "username already exists"}}, "username already exists"},
		{"verify fallback", StepVerifyCode, &fakeAPI{verifyErr: &authclient.APIError{Status: 400}}, "Verification failed."},
		{"signup fallback", StepSetPassword, &fakeAPI{registerErr: &authclient.APIError{Status: 502}}, "Signup failed"},
		{"transport", StepSetPassword, &fakeAPI{registerErr: transport}, "An error occurred. Please try again later."},
	}
	full := Form{Username: "alice", AcademicEmail: "alice@uni.edu", Code: "1", Password: "p", ConfirmPassword: "p"}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := Restore(tc.api, int(tc.step), full)
			if err := w.Submit(context.Background()); err == nil {
				t.Fatalf("expected failure")
			}
			if w.ErrorText() != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, w.ErrorText())
			}
			if w.Step() != tc.step || w.Loading() || w.Completed() {
				t.Fatalf("failure must keep step and release loading")
			}
		})
	}
}

func TestErrorClearedAtStartOfSubmit(t *testing.T) {
	api := &fakeAPI{sendErr: &authclient.APIError{Status: 400, Message: "nope"}}
	w := Restore(api, int(StepCollectIdentity), Form{Username: "alice", AcademicEmail: "alice@uni.edu"})
	_ = w.Submit(context.Background())
	if w.ErrorText() != "nope" {
		t.Fatalf("expected first error, got %q", w.ErrorText())
	}
	api.sendErr = nil
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if w.ErrorText() != "" {
		t.Fatalf("expected error cleared, got %q", w.ErrorText())
	}
}

func TestResendKeepsStep(t *testing.T) {
	api := &fakeAPI{}
	form := Form{Username: "alice", AcademicEmail: "alice@uni.edu", PersonalEmail: "alice@example.com"}
	w := Restore(api, int(StepVerifyCode), form)

	if err := w.Resend(context.Background()); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if w.Step() != StepVerifyCode {
		t.Fatalf("resend must not change step, got %v", w.Step())
	}
	want := identityPayload(form)
	if len(api.sends) != 1 || api.sends[0] != want {
		t.Fatalf("unexpected resend payload %+v", api.sends)
	}

	api.sendErr = &authclient.APIError{Status: 429}
	if err := w.Resend(context.Background()); err == nil {
		t.Fatalf("expected resend failure")
	}
	if w.Step() != StepVerifyCode || w.ErrorText() != "Failed to send verification code." || w.Loading() {
		t.Fatalf("unexpected state after failed resend: step=%v err=%q", w.Step(), w.ErrorText())
	}
}

func TestResendOnlyAtVerifyStep(t *testing.T) {
	for _, step := range []Step{StepCollectIdentity, StepSetPassword} {
		api := &fakeAPI{}
		w := Restore(api, int(step), Form{Username: "alice", AcademicEmail: "alice@uni.edu"})
		if err := w.Resend(context.Background()); !errors.Is(err, ErrResendUnavailable) {
			t.Fatalf("step %v: expected ErrResendUnavailable, got %v", step, err)
		}
		if api.total() != 0 {
			t.Fatalf("step %v: resend must not call the API", step)
		}
	}
}

func TestLoadingFlagSharedBySubmitAndResend(t *testing.T) {
	api := &fakeAPI{block: make(chan struct{}), entered: make(chan struct{})}
	w := Restore(api, int(StepVerifyCode), Form{Username: "alice", AcademicEmail: "alice@uni.edu", Code: "123456"})

	done := make(chan error, 1)
	go func() { done <- w.Resend(context.Background()) }()
	<-api.entered

	if !w.Loading() {
		t.Fatalf("expected loading while resend is in flight")
	}
	if err := w.Submit(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("resend: %v", err)
	}
	if w.Loading() {
		t.Fatalf("loading must be released")
	}
	if len(api.verifies) != 0 {
		t.Fatalf("busy submit must not call verify")
	}
}

func TestSetFieldRejectsUnknownNames(t *testing.T) {
	w := NewWizard(&fakeAPI{})
	if err := w.SetField("email", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	for _, name := range Fields {
		if err := w.SetField(name, name+"-value"); err != nil {
			t.Fatalf("SetField(%q): %v", name, err)
		}
		if got := w.Form().Get(name); got != name+"-value" {
			t.Fatalf("Get(%q) = %q", name, got)
		}
	}
}

func TestRestoreClampsStep(t *testing.T) {
	for _, step := range []int{-1, 3, 42} {
		if got := Restore(&fakeAPI{}, step, Form{}).Step(); got != StepCollectIdentity {
			t.Fatalf("Restore(%d) step = %v", step, got)
		}
	}
	if got := Restore(&fakeAPI{}, 2, Form{}).Step(); got != StepSetPassword {
		t.Fatalf("expected step 2, got %v", got)
	}
}
