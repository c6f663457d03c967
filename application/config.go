// Package application runs the auth HTTP service: it loads the app
// level configuration, builds the container and serves until signalled.
package application

import (
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-auth/config"
	"github.com/KOMKZ/go-yogan-auth/httpx"
)

// AppConfig holds the process level sections. Component sections (token,
// session, database, redis, ...) are read by their providers in package di.
type AppConfig struct {
	App        AppInfo                  `mapstructure:"app"`
	Server     ServerConfig             `mapstructure:"server"`
	Middleware MiddlewareConfig         `mapstructure:"middleware"`
	Httpx      httpx.ErrorLoggingConfig `mapstructure:"httpx"`
}

type AppInfo struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig is the HTTP listener
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MiddlewareConfig struct {
	TraceID    TraceIDConfig    `mapstructure:"trace_id"`
	RequestLog RequestLogConfig `mapstructure:"request_log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type TraceIDConfig struct {
	Enable               bool   `mapstructure:"enable"`
	TraceIDHeader        string `mapstructure:"trace_id_header"`
	EnableResponseHeader bool   `mapstructure:"enable_response_header"`
}

type RequestLogConfig struct {
	Enable    bool     `mapstructure:"enable"`
	SkipPaths []string `mapstructure:"skip_paths"`
}

type MetricsConfig struct {
	Enable bool `mapstructure:"enable"`
}

// Addr is host:port
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *AppConfig) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "yogan-auth"
	}
	if c.App.Version == "" {
		c.App.Version = "dev"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Middleware.TraceID.TraceIDHeader == "" {
		c.Middleware.TraceID.TraceIDHeader = "X-Trace-ID"
	}
	if c.Httpx.LogLevel == "" {
		c.Httpx = httpx.DefaultErrorLoggingConfig()
	}
}

func (c AppConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	return nil
}

// LoadAppConfig decodes, defaults and validates the process sections
func LoadAppConfig(loader *config.Loader) (*AppConfig, error) {
	var cfg AppConfig
	if err := loader.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("read app config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
