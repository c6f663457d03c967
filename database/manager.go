package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/KOMKZ/go-yogan-auth/logger"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Manager owns named gorm instances
type Manager struct {
	instances map[string]*gorm.DB
	logger    *logger.CtxZapLogger
	mu        sync.RWMutex
}

// NewManager opens every configured instance. Statement logging goes
// through logger.GormLogger when EnableLog is set.
func NewManager(configs map[string]Config, log *logger.CtxZapLogger) (*Manager, error) {
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	m := &Manager{instances: make(map[string]*gorm.DB), logger: log}

	for name, cfg := range configs {
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("invalid config for %s: %w", name, err)
		}

		db, err := openDB(cfg)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("open database %s: %w", name, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("get sql.DB for %s: %w", name, err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

		m.instances[name] = db
		m.logger.Debug("database connected", zap.String("name", name), zap.String("driver", cfg.Driver))
	}
	return m, nil
}

func openDB(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	var gormLog gormlogger.Interface = gormlogger.Default.LogMode(gormlogger.Silent)
	if cfg.EnableLog {
		gormLog = logger.NewGormLogger(cfg.SlowThreshold, gormlogger.Info)
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
}

// DB returns the named instance or nil
func (m *Manager) DB(name string) *gorm.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[name]
}

// Names lists configured instances in stable order
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.instances))
	for name := range m.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ping checks every instance
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, db := range m.instances {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("get sql.DB for %s: %w", name, err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database %s ping failed: %w", name, err)
		}
	}
	return nil
}

// Close closes every connection pool
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, db := range m.instances {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			m.logger.Error("failed to close database", zap.String("name", name), zap.Error(err))
		}
	}
	m.instances = make(map[string]*gorm.DB)
	return nil
}

// Shutdown implements do.Shutdowner
func (m *Manager) Shutdown() error {
	return m.Close()
}
