// Package database opens gorm connections and provides a generic repository
package database

import (
	"fmt"
	"time"
)

// Config is one named database instance
type Config struct {
	Driver          string        `mapstructure:"driver"` // mysql, postgres or sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	EnableLog       bool          `mapstructure:"enable_log"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = "mysql"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 100
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 10
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = 200 * time.Millisecond
	}
}

func (c Config) Validate() error {
	if c.DSN == "" {
		return ErrInvalidConfig
	}
	switch c.Driver {
	case "mysql", "postgres", "sqlite":
		return nil
	default:
		return fmt.Errorf("%w: unsupported driver %q", ErrInvalidConfig, c.Driver)
	}
}
