package session

import (
	"context"
	"time"

	"github.com/KOMKZ/go-yogan-auth/user"
)

// UserDirectory is the user store the manager reads and creates accounts in.
// Lookups return user.ErrNotFound when absent.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByID(ctx context.Context, id string) (*user.User, error)
	Create(ctx context.Context, in user.CreateInput) (*user.User, error)
}

// CredentialVerifier hashes and compares passwords one way
type CredentialVerifier interface {
	HashPassword(password string) (string, error)
	CheckPassword(password, hash string) bool
	CheckDummy(password string) bool
	ValidatePassword(password string) error
}

// AttemptLimiter throttles failed logins per email
type AttemptLimiter interface {
	Locked(ctx context.Context, email string) (bool, error)
	Failed(ctx context.Context, email string) error
	Succeeded(ctx context.Context, email string) error
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

type AuthResult struct {
	User   user.View `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// Principal is the identity attached to an authenticated request
type Principal struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}
