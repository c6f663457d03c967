package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestPasswordService() *PasswordService {
	return NewPasswordService(DefaultPolicy(), bcrypt.MinCost)
}

func TestPasswordService_HashAndCheck(t *testing.T) {
	s := newTestPasswordService()

	hash, err := s.HashPassword("Str0ng!Pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!Pass", hash)

	assert.True(t, s.CheckPassword("Str0ng!Pass", hash))
	assert.False(t, s.CheckPassword("str0ng!pass", hash))
	assert.False(t, s.CheckPassword("Str0ng!Pass", "not-a-hash"))
	assert.False(t, s.CheckDummy("Str0ng!Pass"))
}

func TestPasswordService_ValidatePassword(t *testing.T) {
	s := NewPasswordService(PasswordPolicy{
		MinLength:      8,
		MaxLength:      72,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
		Blacklist:      []string{"password"},
	}, bcrypt.MinCost)

	cases := []struct {
		password string
		want     error
	}{
		{"Str0ng!Pass", nil},
		{"Sh0rt!", ErrPasswordTooShort},
		{"alllower1!", ErrPasswordRequireUpper},
		{"ALLUPPER1!", ErrPasswordRequireLower},
		{"NoDigits!!", ErrPasswordRequireDigit},
		{"NoSpecial12", ErrPasswordRequireSpecial},
		{"NoSpecial12_", ErrPasswordRequireSpecial},
		{"MyPassword1!", ErrPasswordInBlacklist},
		{strings.Repeat("Aa1!", 19), ErrPasswordTooLong},
	}

	for _, tc := range cases {
		t.Run(tc.password, func(t *testing.T) {
			err := s.ValidatePassword(tc.password)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{LoginAttempt: LoginAttemptConfig{Enabled: true}}
	cfg.ApplyDefaults()

	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 8, cfg.Policy.MinLength)
	assert.Equal(t, DefaultSpecialChars, cfg.Policy.SpecialChars)
	assert.Equal(t, 5, cfg.LoginAttempt.MaxAttempts)
	assert.NoError(t, cfg.Validate())

	cfg.BcryptCost = 40
	assert.Error(t, cfg.Validate())
}
