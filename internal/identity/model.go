package identity

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when the username is already registered.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEmailTaken is returned when the academic email is already registered.
	ErrEmailTaken = errors.New("academic email already registered")
	// ErrMissingCredentials mirrors the API's required-field check.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrInvalidCredentials hides whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("Invalid credentials")
)

// User represents a registered student account.
type User struct {
	ID            string
	Username      string
	AcademicEmail string
	PersonalEmail string
	PasswordHash  []byte
	TokenVersion  int
	CreatedAt     time.Time
	LastLogin     *time.Time
}

// Credentials is the login request payload.
type Credentials struct {
	Username string
	Password string
}

// Registration carries everything needed to create an account.
type Registration struct {
	Username      string
	AcademicEmail string
	PersonalEmail string
	Password      string
}
