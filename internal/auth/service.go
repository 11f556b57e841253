package auth

import (
	"context"
	"strings"
	"time"

	"github.com/project-campus/campus/internal/config"
	"github.com/project-campus/campus/internal/identity"
)

// CodeConsumer finalizes an academic email verification. Check must not discard
// the code; Release runs only after the account exists.
type CodeConsumer interface {
	Check(ctx context.Context, academicEmail, username, code string) error
	Release(ctx context.Context, academicEmail string) error
}

// Service issues and validates session tokens around the identity service.
type Service struct {
	cfg   config.Config
	ids   *identity.Service
	codes CodeConsumer
	now   func() time.Time
}

// NewService builds the auth service.
func NewService(cfg config.Config, ids *identity.Service, codes CodeConsumer) *Service {
	return &Service{cfg: cfg, ids: ids, codes: codes, now: time.Now}
}

// UserView is the public projection of a user.
type UserView struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	PersonalEmail string `json:"personalEmail,omitempty"`
}

// Session is returned by login and signup.
type Session struct {
	Access    string   `json:"access"`
	Refresh   string   `json:"refresh"`
	ExpiresIn int64    `json:"expires_in"`
	User      UserView `json:"user"`
}

// SignupInput accepts both the wizard payload and the legacy {username, email} form.
type SignupInput struct {
	Username      string
	Password      string
	AcademicEmail string
	PersonalEmail string
	Code          string
}

// Login validates credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, creds identity.Credentials) (Session, error) {
	user, err := s.ids.Authenticate(ctx, creds)
	if err != nil {
		return Session{}, err
	}
	return s.issue(user)
}

// Signup registers a user. When an academic email is supplied, its verification
// code must have been verified for this username. The code is released only after
// the account is created, so a failed registration can be retried with it.
func (s *Service) Signup(ctx context.Context, in SignupInput) (Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return Session{}, identity.ErrMissingCredentials
	}
	if err := s.ids.EnsureAvailable(ctx, in.Username, in.AcademicEmail); err != nil {
		return Session{}, err
	}
	verified := in.AcademicEmail != "" && s.codes != nil
	if verified {
		if err := s.codes.Check(ctx, in.AcademicEmail, in.Username, in.Code); err != nil {
			return Session{}, err
		}
	}

	user, err := s.ids.Register(ctx, identity.Registration{
		Username:      in.Username,
		AcademicEmail: in.AcademicEmail,
		PersonalEmail: in.PersonalEmail,
		Password:      in.Password,
	})
	if err != nil {
		return Session{}, err
	}
	if verified {
		// A leftover record is harmless once the email is registered.
		_ = s.codes.Release(ctx, in.AcademicEmail)
	}
	return s.issue(user)
}

// Refresh verifies the refresh token and returns a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := parseToken(refreshToken, []byte(s.cfg.RefreshSecret), kindRefresh)
	if err != nil {
		return "", 0, err
	}
	user, err := s.ids.Get(ctx, claims.Subject)
	if err != nil || user.TokenVersion != claims.Version {
		return "", 0, ErrInvalidToken
	}

	access, _, err := signToken(s.claimsFor(user, kindAccess), []byte(s.cfg.JWTSecret), s.now(), s.cfg.AccessTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return access, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// Authenticate resolves an access token to its user, rejecting revoked tokens.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (identity.User, error) {
	claims, err := parseToken(accessToken, []byte(s.cfg.JWTSecret), kindAccess)
	if err != nil {
		return identity.User{}, err
	}
	user, err := s.ids.Get(ctx, claims.Subject)
	if err != nil || user.TokenVersion != claims.Version {
		return identity.User{}, ErrInvalidToken
	}
	return user, nil
}

// Logout invalidates all outstanding tokens for the user. The refresh token must
// be the caller's own.
func (s *Service) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return ErrRefreshRequired
	}
	claims, err := parseToken(refreshToken, []byte(s.cfg.RefreshSecret), kindRefresh)
	if err != nil || claims.Subject != userID {
		return ErrInvalidRefresh
	}
	return s.ids.RevokeTokens(ctx, userID)
}

func (s *Service) issue(user identity.User) (Session, error) {
	now := s.now()
	access, accessExp, err := signToken(s.claimsFor(user, kindAccess), []byte(s.cfg.JWTSecret), now, s.cfg.AccessTokenTTL)
	if err != nil {
		return Session{}, err
	}
	refresh, _, err := signToken(s.claimsFor(user, kindRefresh), []byte(s.cfg.RefreshSecret), now, s.cfg.RefreshTokenTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Access:    access,
		Refresh:   refresh,
		ExpiresIn: int64(accessExp.Sub(now).Seconds()),
		User:      ViewOf(user),
	}, nil
}

func (s *Service) claimsFor(user identity.User, kind string) Claims {
	c := Claims{Username: user.Username, Version: user.TokenVersion, Kind: kind}
	c.Subject = user.ID
	c.Issuer = s.cfg.AppName
	return c
}

// ViewOf projects a user for API responses.
func ViewOf(user identity.User) UserView {
	return UserView{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.AcademicEmail,
		PersonalEmail: user.PersonalEmail,
	}
}
