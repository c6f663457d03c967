package revocation

import (
	"fmt"
	"time"
)

// Config selects and tunes the store backend
type Config struct {
	Storage         string        `mapstructure:"storage"` // redis or memory
	KeyPrefix       string        `mapstructure:"key_prefix"`
	RedisInstance   string        `mapstructure:"redis_instance"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"` // memory only
}

func (c *Config) ApplyDefaults() {
	if c.Storage == "" {
		c.Storage = "redis"
	}
	if c.RedisInstance == "" {
		c.RedisInstance = "main"
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = time.Minute
	}
}

func (c Config) Validate() error {
	if c.Storage != "redis" && c.Storage != "memory" {
		return fmt.Errorf("revocation.storage must be redis or memory, got %q", c.Storage)
	}
	if c.CleanupInterval < 0 {
		return fmt.Errorf("revocation.cleanup_interval must not be negative")
	}
	return nil
}
