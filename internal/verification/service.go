package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/project-campus/campus/internal/notification"
)

var (
	ErrMissingFields   = errors.New("Please fill in all required fields.")
	ErrNotAcademic     = errors.New("Please use your academic email address.")
	ErrResendTooSoon   = errors.New("Please wait before requesting another code.")
	ErrNoCode          = errors.New("No verification code found. Please request a new one.")
	ErrCodeMismatch    = errors.New("Invalid verification code.")
	ErrTooManyAttempts = errors.New("Too many attempts. Please request a new code.")
	ErrNotVerified     = errors.New("Academic email has not been verified.")
)

const codeDigits = 6

// IdentityChecker rejects identities that are already registered.
type IdentityChecker interface {
	EnsureAvailable(ctx context.Context, username, academicEmail string) error
}

// Options tune code lifetime and throttling.
type Options struct {
	TTL             time.Duration
	ResendCooldown  time.Duration
	MaxAttempts     int
	AcademicDomains []string
	AppName         string
}

// SendRequest is the identity step of the signup wizard.
type SendRequest struct {
	Username      string
	AcademicEmail string
	PersonalEmail string
}

// Service issues and checks one-time signup codes.
type Service struct {
	store    Store
	notifier notification.Notifier
	ids      IdentityChecker
	opts     Options
	now      func() time.Time
	generate func() (string, error)
}

// NewService wires a verification service.
func NewService(store Store, notifier notification.Notifier, ids IdentityChecker, opts Options) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	return &Service{
		store:    store,
		notifier: notifier,
		ids:      ids,
		opts:     opts,
		now:      time.Now,
		generate: randomCode,
	}
}

// Send issues a fresh code for the academic email and delivers it. Calling Send again
// after the cooldown replaces the previous code.
func (s *Service) Send(ctx context.Context, req SendRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	email := normalize(req.AcademicEmail)
	if req.Username == "" || email == "" {
		return ErrMissingFields
	}
	if !s.isAcademic(email) {
		return ErrNotAcademic
	}
	if s.ids != nil {
		if err := s.ids.EnsureAvailable(ctx, req.Username, email); err != nil {
			return err
		}
	}

	now := s.now().UTC()
	prev, err := s.store.Get(ctx, email)
	switch {
	case err == nil:
		if s.opts.ResendCooldown > 0 && now.Sub(prev.SentAt) < s.opts.ResendCooldown {
			return ErrResendTooSoon
		}
	case !errors.Is(err, ErrNoCode):
		return fmt.Errorf("load verification record: %w", err)
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	rec := Record{
		Username:      req.Username,
		PersonalEmail: normalize(req.PersonalEmail),
		CodeHash:      hash,
		SentAt:        now,
	}
	if err := s.store.Save(ctx, email, rec, s.opts.TTL); err != nil {
		return fmt.Errorf("save verification record: %w", err)
	}

	msg := notification.Message{
		Kind:        notification.KindVerificationCode,
		Destination: email,
		Subject:     fmt.Sprintf("Your %s verification code", s.appName()),
		Body: fmt.Sprintf("Hi %s,\nYour verification code is %s.\nIt expires in %d minutes.",
			req.Username, code, int(s.opts.TTL.Minutes())),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		_ = s.store.Delete(ctx, email)
		return fmt.Errorf("deliver code: %w", err)
	}
	return nil
}

// Verify checks a code and marks the email as verified. Each wrong guess counts
// towards the attempt limit.
func (s *Service) Verify(ctx context.Context, academicEmail, code string) error {
	email := normalize(academicEmail)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return ErrMissingFields
	}

	rec, err := s.store.Get(ctx, email)
	if err != nil {
		return err
	}
	if rec.Attempts >= s.opts.MaxAttempts {
		return ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword(rec.CodeHash, []byte(code)) != nil {
		rec.Attempts++
		if err := s.store.Update(ctx, email, rec); err != nil {
			return err
		}
		if rec.Attempts >= s.opts.MaxAttempts {
			return ErrTooManyAttempts
		}
		return ErrCodeMismatch
	}

	rec.Verified = true
	return s.store.Update(ctx, email, rec)
}

// Check confirms that academicEmail was verified for username with this code. The
// record is left in place; call Release once the account exists.
func (s *Service) Check(ctx context.Context, academicEmail, username, code string) error {
	email := normalize(academicEmail)
	rec, err := s.store.Get(ctx, email)
	if err != nil {
		return err
	}
	if !rec.Verified || rec.Username != strings.TrimSpace(username) {
		return ErrNotVerified
	}
	if bcrypt.CompareHashAndPassword(rec.CodeHash, []byte(strings.TrimSpace(code))) != nil {
		return ErrCodeMismatch
	}
	return nil
}

// Release drops the record for academicEmail so its code cannot register twice.
func (s *Service) Release(ctx context.Context, academicEmail string) error {
	return s.store.Delete(ctx, normalize(academicEmail))
}

func (s *Service) isAcademic(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if len(s.opts.AcademicDomains) == 0 {
		return true
	}
	domain := email[at+1:]
	for _, allowed := range s.opts.AcademicDomains {
		allowed = strings.ToLower(strings.TrimPrefix(allowed, "."))
		if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
			return true
		}
	}
	return false
}

func (s *Service) appName() string {
	if s.opts.AppName == "" {
		return "Project Campus"
	}
	return s.opts.AppName
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
