// Package telemetry sets up the OpenTelemetry meter provider
package telemetry

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled        bool              `mapstructure:"enabled"`
	ServiceName    string            `mapstructure:"service_name"`
	ServiceVersion string            `mapstructure:"service_version"`
	Exporter       string            `mapstructure:"exporter"` // stdout, otlp or noop
	Endpoint       string            `mapstructure:"endpoint"`
	Insecure       bool              `mapstructure:"insecure"`
	Headers        map[string]string `mapstructure:"headers"`
	Interval       time.Duration     `mapstructure:"interval"`
	Timeout        time.Duration     `mapstructure:"timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "yogan-auth"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "dev"
	}
	if c.Exporter == "" {
		c.Exporter = "noop"
	}
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317"
	}
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

func (c Config) Validate() error {
	switch c.Exporter {
	case "stdout", "otlp", "noop":
		return nil
	default:
		return fmt.Errorf("unsupported metrics exporter: %s", c.Exporter)
	}
}
