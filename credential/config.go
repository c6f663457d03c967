package credential

import (
	"errors"
	"time"
)

// DefaultSpecialChars is the set counted as "special" by the policy
const DefaultSpecialChars = `!@#$%^&*(),.?":{}|<>`

// Config covers hashing, the strength policy and login throttling
type Config struct {
	BcryptCost   int                `mapstructure:"bcrypt_cost"`
	Policy       PasswordPolicy     `mapstructure:"policy"`
	LoginAttempt LoginAttemptConfig `mapstructure:"login_attempt"`
}

// PasswordPolicy is the strength rule set checked on registration
type PasswordPolicy struct {
	MinLength      int      `mapstructure:"min_length"`
	MaxLength      int      `mapstructure:"max_length"`
	RequireUpper   bool     `mapstructure:"require_upper"`
	RequireLower   bool     `mapstructure:"require_lower"`
	RequireDigit   bool     `mapstructure:"require_digit"`
	RequireSpecial bool     `mapstructure:"require_special"`
	SpecialChars   string   `mapstructure:"special_chars"`
	Blacklist      []string `mapstructure:"blacklist"`
}

// LoginAttemptConfig locks an email after repeated failures
type LoginAttemptConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	LockoutDuration time.Duration `mapstructure:"lockout_duration"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
}

// DefaultPolicy requires 8+ characters with upper, lower, digit and special
func DefaultPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:      8,
		MaxLength:      72, // bcrypt ignores bytes past 72
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
		SpecialChars:   DefaultSpecialChars,
	}
}

func (c *Config) ApplyDefaults() {
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	d := DefaultPolicy()
	if c.Policy.MinLength == 0 {
		c.Policy.MinLength = d.MinLength
	}
	if c.Policy.MaxLength == 0 {
		c.Policy.MaxLength = d.MaxLength
	}
	if c.Policy.SpecialChars == "" {
		c.Policy.SpecialChars = d.SpecialChars
	}
	if c.LoginAttempt.Enabled {
		if c.LoginAttempt.MaxAttempts == 0 {
			c.LoginAttempt.MaxAttempts = 5
		}
		if c.LoginAttempt.LockoutDuration == 0 {
			c.LoginAttempt.LockoutDuration = 15 * time.Minute
		}
		if c.LoginAttempt.KeyPrefix == "" {
			c.LoginAttempt.KeyPrefix = "login_attempt_"
		}
	}
}

func (c Config) Validate() error {
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("credential.bcrypt_cost must be between 4 and 31")
	}
	if c.Policy.MinLength < 1 || c.Policy.MinLength > c.Policy.MaxLength {
		return errors.New("credential.policy.min_length must be between 1 and max_length")
	}
	if c.Policy.MaxLength > 72 {
		return errors.New("credential.policy.max_length must not exceed 72")
	}
	if c.LoginAttempt.Enabled && c.LoginAttempt.MaxAttempts < 1 {
		return errors.New("credential.login_attempt.max_attempts must be >= 1")
	}
	return nil
}
