// Package signup holds the state behind the signup pages: the three-step wizard
// and the legacy two-field form.
package signup

import (
	"context"
	"errors"
	"sync"

	"github.com/project-campus/campus/internal/authclient"
)

// Messages shown above the wizard form.
const (
	RequiredMessage   = "Please fill in all required fields."
	MismatchMessage   = "Passwords do not match."
	SendFailedMessage = "Failed to send verification code."
	VerifyFailMessage = "Verification failed."
	FailedMessage     = "Signup failed"
)

var (
	// ErrBusy rejects a submit or resend while another call is in flight.
	ErrBusy = errors.New("signup request already in progress")
	// ErrUnknownField is returned by SetField for names outside the form.
	ErrUnknownField = errors.New("unknown signup field")
	// ErrResendUnavailable is returned by Resend outside the verify step.
	ErrResendUnavailable = errors.New("code can only be resent while verifying")
	// ErrIncomplete and ErrPasswordMismatch report local validation failures;
	// no request is sent.
	ErrIncomplete       = errors.New(RequiredMessage)
	ErrPasswordMismatch = errors.New(MismatchMessage)
)

// Step is the wizard's position. It only moves forward.
type Step int

const (
	StepCollectIdentity Step = iota
	StepVerifyCode
	StepSetPassword
)

func (s Step) String() string {
	switch s {
	case StepCollectIdentity:
		return "collect_identity"
	case StepVerifyCode:
		return "verify_code"
	case StepSetPassword:
		return "set_password"
	default:
		return "unknown"
	}
}

// Field names accepted by SetField. They match the HTML input names.
const (
	FieldUsername        = "username"
	FieldAcademicEmail   = "academicEmail"
	FieldPersonalEmail   = "personalEmail"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldCode            = "code"
)

// Fields lists every wizard field in form order.
var Fields = []string{
	FieldUsername,
	FieldAcademicEmail,
	FieldPersonalEmail,
	FieldPassword,
	FieldConfirmPassword,
	FieldCode,
}

// Form is the wizard's single field record.
type Form struct {
	Username        string
	AcademicEmail   string
	PersonalEmail   string
	Password        string
	ConfirmPassword string
	Code            string
}

func (f *Form) field(name string) (*string, bool) {
	switch name {
	case FieldUsername:
		return &f.Username, true
	case FieldAcademicEmail:
		return &f.AcademicEmail, true
	case FieldPersonalEmail:
		return &f.PersonalEmail, true
	case FieldPassword:
		return &f.Password, true
	case FieldConfirmPassword:
		return &f.ConfirmPassword, true
	case FieldCode:
		return &f.Code, true
	default:
		return nil, false
	}
}

// Get returns the named field, or "" for unknown names.
func (f Form) Get(name string) string {
	if p, ok := f.field(name); ok {
		return *p
	}
	return ""
}

// WizardAPI is the part of the auth client the wizard needs.
type WizardAPI interface {
	SendCode(ctx context.Context, req authclient.SendCodeRequest) error
	VerifyCode(ctx context.Context, req authclient.VerifyCodeRequest) error
	Register(ctx context.Context, req authclient.RegisterRequest) (authclient.Session, error)
}

// Wizard walks a user from identity collection through code verification to
// password setup. One loading flag covers Submit and Resend.
type Wizard struct {
	api WizardAPI

	mu        sync.Mutex
	step      Step
	form      Form
	errMsg    string
	loading   bool
	completed bool
	session   authclient.Session
}

// NewWizard starts a wizard at the identity step.
func NewWizard(api WizardAPI) *Wizard {
	return &Wizard{api: api}
}

// Restore rebuilds a wizard from state carried by the page. Steps out of range
// restart at the identity step.
func Restore(api WizardAPI, step int, form Form) *Wizard {
	s := Step(step)
	if s < StepCollectIdentity || s > StepSetPassword {
		s = StepCollectIdentity
	}
	return &Wizard{api: api, step: s, form: form}
}

// SetField updates one form field by its input name.
func (w *Wizard) SetField(name, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.form.field(name)
	if !ok {
		return ErrUnknownField
	}
	*p = value
	return nil
}

// Submit runs the current step. Validation failures set the error without a
// request; API failures keep the step; success advances it.
func (w *Wizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.loading {
		w.mu.Unlock()
		return ErrBusy
	}
	w.errMsg = ""
	if err := w.validate(); err != nil {
		w.errMsg = err.Error()
		w.mu.Unlock()
		return err
	}
	w.loading = true
	step, form := w.step, w.form
	w.mu.Unlock()

	var (
		session  authclient.Session
		err      error
		fallback string
	)
	switch step {
	case StepCollectIdentity:
		fallback = SendFailedMessage
		err = w.api.SendCode(ctx, identityPayload(form))
	case StepVerifyCode:
		fallback = VerifyFailMessage
		err = w.api.VerifyCode(ctx, authclient.VerifyCodeRequest{AcademicEmail: form.AcademicEmail, Code: form.Code})
	case StepSetPassword:
		fallback = FailedMessage
		session, err = w.api.Register(ctx, authclient.RegisterRequest{
			Username:      form.Username,
			AcademicEmail: form.AcademicEmail,
			PersonalEmail: form.PersonalEmail,
			Code:          form.Code,
			Password:      form.Password,
		})
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false
	if err != nil {
		w.errMsg = authclient.UserMessage(err, fallback)
		return err
	}
	if step == StepSetPassword {
		w.completed = true
		w.session = session
	} else {
		w.step = step + 1
	}
	return nil
}

// Resend requests a fresh code. Only valid at the verify step; never moves the step.
func (w *Wizard) Resend(ctx context.Context) error {
	w.mu.Lock()
	if w.loading {
		w.mu.Unlock()
		return ErrBusy
	}
	if w.step != StepVerifyCode {
		w.mu.Unlock()
		return ErrResendUnavailable
	}
	w.errMsg = ""
	w.loading = true
	form := w.form
	w.mu.Unlock()

	err := w.api.SendCode(ctx, identityPayload(form))

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false
	if err != nil {
		w.errMsg = authclient.UserMessage(err, SendFailedMessage)
		return err
	}
	return nil
}

// validate checks the current step's required fields. Callers hold w.mu.
func (w *Wizard) validate() error {
	f := w.form
	switch w.step {
	case StepCollectIdentity:
		if f.Username == "" || f.AcademicEmail == "" {
			return ErrIncomplete
		}
	case StepVerifyCode:
		if f.Code == "" {
			return ErrIncomplete
		}
	case StepSetPassword:
		if f.Password == "" || f.ConfirmPassword == "" {
			return ErrIncomplete
		}
		if f.Password != f.ConfirmPassword {
			return ErrPasswordMismatch
		}
	}
	return nil
}

func identityPayload(f Form) authclient.SendCodeRequest {
	return authclient.SendCodeRequest{
		Username:      f.Username,
		AcademicEmail: f.AcademicEmail,
		PersonalEmail: f.PersonalEmail,
	}
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Form returns a copy of the field record.
func (w *Wizard) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// ErrorText is the message currently shown above the form.
func (w *Wizard) ErrorText() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errMsg
}

// Loading reports whether a submit or resend is in flight.
func (w *Wizard) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// Completed reports whether the final signup call succeeded.
func (w *Wizard) Completed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.completed
}

// Session returns the session issued by a completed signup.
func (w *Wizard) Session() (authclient.Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session, w.completed
}
