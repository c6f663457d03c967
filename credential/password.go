// Package credential hashes and checks passwords and throttles login attempts
package credential

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PasswordService wraps bcrypt and the strength policy
type PasswordService struct {
	policy     PasswordPolicy
	bcryptCost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewPasswordService(policy PasswordPolicy, bcryptCost int) *PasswordService {
	if policy.SpecialChars == "" {
		policy.SpecialChars = DefaultSpecialChars
	}
	return &PasswordService{policy: policy, bcryptCost: bcryptCost}
}

// HashPassword returns a bcrypt hash
func (s *PasswordService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword is a one-way comparison against hash
func (s *PasswordService) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CheckDummy burns the same bcrypt work as CheckPassword and always fails.
// Login calls it for unknown emails so response time does not reveal them.
func (s *PasswordService) CheckDummy(password string) bool {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), s.bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
	return false
}

// ValidatePassword returns the first policy rule password breaks
func (s *PasswordService) ValidatePassword(password string) error {
	p := s.policy
	if len(password) < p.MinLength {
		return ErrPasswordTooShort
	}
	if p.MaxLength > 0 && len(password) > p.MaxLength {
		return ErrPasswordTooLong
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		case strings.ContainsRune(p.SpecialChars, ch):
			hasSpecial = true
		}
	}

	switch {
	case p.RequireUpper && !hasUpper:
		return ErrPasswordRequireUpper
	case p.RequireLower && !hasLower:
		return ErrPasswordRequireLower
	case p.RequireDigit && !hasDigit:
		return ErrPasswordRequireDigit
	case p.RequireSpecial && !hasSpecial:
		return ErrPasswordRequireSpecial
	}

	lower := strings.ToLower(password)
	for _, weak := range p.Blacklist {
		if weak != "" && strings.Contains(lower, strings.ToLower(weak)) {
			return ErrPasswordInBlacklist
		}
	}
	return nil
}

func (s *PasswordService) Policy() PasswordPolicy {
	return s.policy
}
