package redis

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/KOMKZ/go-yogan-auth/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Manager owns named clients. Standalone and cluster instances are both
// exposed as redis.UniversalClient.
type Manager struct {
	clients map[string]redis.UniversalClient
	configs map[string]Config
	logger  *logger.CtxZapLogger
	mu      sync.RWMutex
}

// NewManager creates and pings every configured instance. A failed ping
// aborts startup.
func NewManager(ctx context.Context, configs map[string]Config, log *logger.CtxZapLogger, hooks ...redis.Hook) (*Manager, error) {
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	m := &Manager{
		clients: make(map[string]redis.UniversalClient),
		configs: make(map[string]Config),
		logger:  log,
	}

	for name, cfg := range configs {
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("invalid config for %s: %w", name, err)
		}

		client := newClient(cfg)
		for _, h := range hooks {
			client.AddHook(h)
		}
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			_ = m.Close()
			return nil, fmt.Errorf("ping %s failed: %w", name, err)
		}

		m.clients[name] = client
		m.configs[name] = cfg
		m.logger.DebugCtx(ctx, "redis connected",
			zap.String("name", name),
			zap.String("mode", cfg.Mode),
			zap.Strings("addrs", cfg.Addrs))
	}
	return m, nil
}

func newClient(cfg Config) redis.UniversalClient {
	if cfg.Mode == "cluster" {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.Addrs,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addrs[0],
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

// Client returns the named instance or nil
func (m *Manager) Client(name string) redis.UniversalClient {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clients[name]
}

// Names lists configured instances in stable order
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ping checks every instance
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, client := range m.clients {
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping %s failed: %w", name, err)
		}
	}
	return nil
}

// Close closes every client
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for name, client := range m.clients {
		if err := client.Close(); err != nil {
			m.logger.Error("failed to close redis", zap.String("name", name), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	m.clients = make(map[string]redis.UniversalClient)
	return firstErr
}

// Shutdown implements do.Shutdowner
func (m *Manager) Shutdown() error {
	return m.Close()
}
