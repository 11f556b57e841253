package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

var (
	// ErrInvalidToken covers malformed, expired, mis-signed or revoked tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrRefreshRequired and ErrInvalidRefresh reject a logout body.
	ErrRefreshRequired = errors.New("refresh token is required")
	ErrInvalidRefresh  = errors.New("Invalid refresh token")
)

// Claims is the payload of both access and refresh tokens.
type Claims struct {
	Username string `json:"username"`
	Version  int    `json:"ver"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

func signToken(claims Claims, secret []byte, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(exp)
	claims.ID = uuid.NewString()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", claims.Kind, err)
	}
	return signed, exp, nil
}

func parseToken(raw string, secret []byte, kind string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Kind != kind || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
