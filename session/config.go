// Package session is the token lifecycle manager: register, login,
// refresh, logout and per-request verification.
package session

import "github.com/KOMKZ/go-yogan-auth/errcode"

type Config struct {
	// SingleSession keeps one refresh session per user; a new login ends
	// the previous one. Defaults to true.
	SingleSession      *bool  `mapstructure:"single_session"`
	RefreshKeyPrefix   string `mapstructure:"refresh_key_prefix"`
	BlacklistKeyPrefix string `mapstructure:"blacklist_key_prefix"`
}

func (c *Config) ApplyDefaults() {
	if c.SingleSession == nil {
		single := true
		c.SingleSession = &single
	}
	if c.RefreshKeyPrefix == "" {
		c.RefreshKeyPrefix = "refresh_"
	}
	if c.BlacklistKeyPrefix == "" {
		c.BlacklistKeyPrefix = "blacklist_"
	}
}

func (c Config) Validate() error {
	if c.RefreshKeyPrefix == c.BlacklistKeyPrefix {
		return errcode.ErrConfiguration.WithMsg("session: refresh and blacklist key prefixes must differ")
	}
	return nil
}

// IsSingleSession reports the effective mode
func (c Config) IsSingleSession() bool {
	return c.SingleSession == nil || *c.SingleSession
}
