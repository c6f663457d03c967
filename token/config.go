package token

import (
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-auth/errcode"
)

// Config holds signing material. Secrets, lifetimes, issuer and audience
// have no defaults: a missing value must stop the process at startup.
type Config struct {
	Issuer    string         `mapstructure:"issuer"`
	Audience  string         `mapstructure:"audience"`
	Algorithm string         `mapstructure:"algorithm"` // HS256, HS384 or HS512
	Access    LifetimeConfig `mapstructure:"access"`
	Refresh   LifetimeConfig `mapstructure:"refresh"`
}

// LifetimeConfig is the per-type secret and lifetime
type LifetimeConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// ApplyDefaults only fills the algorithm
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = "HS256"
	}
}

// Validate reports the first missing or unsafe setting as ErrConfiguration
func (c Config) Validate() error {
	switch {
	case c.Issuer == "":
		return errcode.ErrConfiguration.WithMsg("token.issuer is required")
	case c.Audience == "":
		return errcode.ErrConfiguration.WithMsg("token.audience is required")
	}
	if _, ok := signingMethods[c.Algorithm]; !ok {
		return errcode.ErrConfiguration.WithMsgf("token.algorithm %q is not supported", c.Algorithm)
	}
	for _, t := range []Type{TypeAccess, TypeRefresh} {
		lc := c.lifetime(t)
		if lc.Secret == "" {
			return errcode.ErrConfiguration.WithMsgf("token.%s.secret is required", t)
		}
		if len(lc.Secret) < 32 {
			return errcode.ErrConfiguration.WithMsgf("token.%s.secret must be at least 32 bytes", t)
		}
		if lc.TTL <= 0 {
			return errcode.ErrConfiguration.WithMsgf("token.%s.ttl must be positive", t)
		}
	}
	if c.Access.Secret == c.Refresh.Secret {
		return errcode.ErrConfiguration.WithMsg("token.access.secret and token.refresh.secret must differ")
	}
	return nil
}

func (c Config) lifetime(t Type) LifetimeConfig {
	if t == TypeRefresh {
		return c.Refresh
	}
	return c.Access
}

func (c Config) String() string {
	return fmt.Sprintf("token.Config{issuer:%s, audience:%s, alg:%s, access_ttl:%s, refresh_ttl:%s}",
		c.Issuer, c.Audience, c.Algorithm, c.Access.TTL, c.Refresh.TTL)
}
