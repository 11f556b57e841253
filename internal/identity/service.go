package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service manages the account lifecycle.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Availability reports which identity fields are still free.
type Availability struct {
	Username      bool `json:"username"`
	AcademicEmail bool `json:"academicEmail"`
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.AcademicEmail = normalizeEmail(reg.AcademicEmail)
	reg.PersonalEmail = normalizeEmail(reg.PersonalEmail)
	if reg.Username == "" || reg.Password == "" {
		return User{}, ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:            uuid.New().String(),
		Username:      reg.Username,
		AcademicEmail: reg.AcademicEmail,
		PersonalEmail: reg.PersonalEmail,
		PasswordHash:  hash,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies credentials and records the login time.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(creds.Username))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return User{}, err
	}
	user.LastLogin = &now

	return user, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// Available checks whether a username and academic email can still be registered.
// Empty inputs are reported as available.
func (s *Service) Available(ctx context.Context, username, academicEmail string) (Availability, error) {
	out := Availability{Username: true, AcademicEmail: true}

	if username = strings.TrimSpace(username); username != "" {
		_, err := s.repo.FindByUsername(ctx, username)
		switch {
		case err == nil:
			out.Username = false
		case !errors.Is(err, ErrNotFound):
			return Availability{}, err
		}
	}

	if academicEmail = normalizeEmail(academicEmail); academicEmail != "" {
		_, err := s.repo.FindByAcademicEmail(ctx, academicEmail)
		switch {
		case err == nil:
			out.AcademicEmail = false
		case !errors.Is(err, ErrNotFound):
			return Availability{}, err
		}
	}

	return out, nil
}

// EnsureAvailable is Available expressed as an error.
func (s *Service) EnsureAvailable(ctx context.Context, username, academicEmail string) error {
	avail, err := s.Available(ctx, username, academicEmail)
	if err != nil {
		return err
	}
	if !avail.Username {
		return ErrUsernameTaken
	}
	if !avail.AcademicEmail {
		return ErrEmailTaken
	}
	return nil
}

// RevokeTokens bumps the token version so that outstanding tokens stop validating.
func (s *Service) RevokeTokens(ctx context.Context, id string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.UpdateTokenVersion(ctx, user.ID, user.TokenVersion+1)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
