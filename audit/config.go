package audit

import (
	"fmt"
	"time"
)

// Config selects the audit sink
type Config struct {
	Enabled  bool        `mapstructure:"enabled"`
	PoolSize int         `mapstructure:"pool_size"`
	Sink     string      `mapstructure:"sink"` // kafka or log
	Kafka    KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	ClientID     string        `mapstructure:"client_id"`
	Version      string        `mapstructure:"version"`
	RequiredAcks int           `mapstructure:"required_acks"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryMax     int           `mapstructure:"retry_max"`
}

func (c *Config) ApplyDefaults() {
	if c.PoolSize <= 0 {
		c.PoolSize = 64
	}
	if c.Sink == "" {
		c.Sink = "log"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "auth.audit"
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "yogan-auth"
	}
	if c.Kafka.Version == "" {
		c.Kafka.Version = "3.6.0"
	}
	if c.Kafka.RequiredAcks == 0 {
		c.Kafka.RequiredAcks = 1
	}
	if c.Kafka.Timeout <= 0 {
		c.Kafka.Timeout = 5 * time.Second
	}
	if c.Kafka.RetryMax <= 0 {
		c.Kafka.RetryMax = 3
	}
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Sink {
	case "log":
		return nil
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("audit.kafka.brokers cannot be empty")
		}
		return nil
	default:
		return fmt.Errorf("invalid audit sink: %s (must be kafka or log)", c.Sink)
	}
}
