// Package token decodes session tokens issued by the catalog backend.
//
// The client holds no signing key, so tokens are parsed without signature
// verification. Validity is a client-side notion: the token decodes and its
// expiry lies in the future.
package token

import (
	"errors"
	"moviehub/proj/internal/domain/models"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed = errors.New("token is malformed")
	ErrNoExpiry  = errors.New("token has no expiry")
	ErrExpired   = errors.New("token is expired")
)

type Claims struct {
	UserID string `json:"id,omitempty"`
	Role   string `json:"role,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID prefers the backend's "id" claim over "sub".
func (c *Claims) SubjectID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

func (c *Claims) User() *models.User {
	user := &models.User{
		ID:    c.SubjectID(),
		Role:  models.ParseRole(c.Role),
		Email: c.Email,
	}
	if c.IssuedAt != nil {
		user.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		user.ExpiresAt = c.ExpiresAt.Time
	}
	return user
}

var parser = jwt.NewParser()

// Decode parses the token payload. It never panics, a failed decode is
// reported as ErrMalformed.
func Decode(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMalformed
	}
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	return claims, nil
}

// Check decodes raw and verifies that it has not expired at now.
func Check(raw string, now time.Time) (*Claims, error) {
	claims, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, ErrNoExpiry
	}
	if !claims.ExpiresAt.After(now) {
		return nil, ErrExpired
	}
	return claims, nil
}

func Valid(raw string, now time.Time) bool {
	_, err := Check(raw, now)
	return err == nil
}
