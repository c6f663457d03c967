package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Type discriminates access from refresh tokens. The two are never interchangeable.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

func (t Type) Valid() bool {
	return t == TypeAccess || t == TypeRefresh
}

// Claims is the signed payload. Subject carries the user id.
type Claims struct {
	Email string `json:"email"`
	Type  Type   `json:"type"`
	jwt.RegisteredClaims
}

// UserID is an alias for the subject claim
func (c *Claims) UserID() string {
	return c.Subject
}

// Remaining returns the time left before expiry, relative to now.
// Tokens without an expiry report zero.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}
