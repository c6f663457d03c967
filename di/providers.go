package di

import (
	"context"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-auth/audit"
	"github.com/KOMKZ/go-yogan-auth/config"
	"github.com/KOMKZ/go-yogan-auth/credential"
	"github.com/KOMKZ/go-yogan-auth/database"
	"github.com/KOMKZ/go-yogan-auth/health"
	"github.com/KOMKZ/go-yogan-auth/logger"
	"github.com/KOMKZ/go-yogan-auth/middleware"
	"github.com/KOMKZ/go-yogan-auth/redis"
	"github.com/KOMKZ/go-yogan-auth/revocation"
	"github.com/KOMKZ/go-yogan-auth/session"
	"github.com/KOMKZ/go-yogan-auth/telemetry"
	"github.com/KOMKZ/go-yogan-auth/token"
	"github.com/KOMKZ/go-yogan-auth/user"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// MeterName is the instrumentation scope of every service metric
const MeterName = "github.com/KOMKZ/go-yogan-auth"

// DefaultDatabase holds the users table
const DefaultDatabase = "master"

// ConfigOptions feeds the config loader
type ConfigOptions struct {
	ConfigPath string      // directory with config.yaml and <env>.yaml
	EnvPrefix  string      // e.g. AUTH, reads AUTH_SERVER_PORT
	EnvKeys    []string    // keys with underscores that need explicit binding
	Flags      interface{} // struct with `config` tags
}

func ProvideConfigLoader(opts ConfigOptions) func(do.Injector) (*config.Loader, error) {
	return func(do.Injector) (*config.Loader, error) {
		if opts.ConfigPath == "" {
			opts.ConfigPath = "./configs"
		}
		return config.NewLoaderBuilder().
			WithConfigPath(opts.ConfigPath).
			WithEnvPrefix(opts.EnvPrefix, opts.EnvKeys...).
			WithFlags(opts.Flags).
			Build()
	}
}

// ProvideLoggerManager falls back to defaults when the logger section is
// missing or unreadable
func ProvideLoggerManager(i do.Injector) (*logger.Manager, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return logger.NewManager(logger.DefaultManagerConfig()), nil
	}

	cfg := logger.DefaultManagerConfig()
	if loader.IsSet("logger") {
		if err := loader.UnmarshalKey("logger", &cfg); err != nil {
			return nil, fmt.Errorf("read logger config: %w", err)
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.InitManager(cfg)
	return logger.Global(), nil
}

func ProvideCtxLogger(module string) func(do.Injector) (*logger.CtxZapLogger, error) {
	return func(i do.Injector) (*logger.CtxZapLogger, error) {
		mgr, err := do.Invoke[*logger.Manager](i)
		if err != nil {
			return logger.GetLogger(module), nil
		}
		return mgr.GetLogger(module), nil
	}
}

func moduleLogger(i do.Injector, module string) *logger.CtxZapLogger {
	mgr, err := do.Invoke[*logger.Manager](i)
	if err != nil {
		return logger.GetLogger(module)
	}
	return mgr.GetLogger(module)
}

func ProvideTelemetryManager(i do.Injector) (*telemetry.Manager, error) {
	loader := do.MustInvoke[*config.Loader](i)
	var cfg telemetry.Config
	if err := loader.UnmarshalKey("telemetry", &cfg); err != nil {
		return nil, fmt.Errorf("read telemetry config: %w", err)
	}
	return telemetry.NewManager(context.Background(), cfg, moduleLogger(i, "telemetry"))
}

// ProvideDatabaseManager opens database.connections and migrates the
// users table when database.auto_migrate is set
func ProvideDatabaseManager(i do.Injector) (*database.Manager, error) {
	loader := do.MustInvoke[*config.Loader](i)
	var configs map[string]database.Config
	if err := loader.UnmarshalKey("database.connections", &configs); err != nil {
		return nil, fmt.Errorf("read database config: %w", err)
	}
	if _, ok := configs[DefaultDatabase]; !ok {
		return nil, fmt.Errorf("%w: database.connections.%s is required", database.ErrInvalidConfig, DefaultDatabase)
	}

	mgr, err := database.NewManager(configs, moduleLogger(i, "database"))
	if err != nil {
		return nil, err
	}
	if loader.GetBool("database.auto_migrate") {
		if err := mgr.DB(DefaultDatabase).AutoMigrate(&user.User{}); err != nil {
			_ = mgr.Close()
			return nil, fmt.Errorf("migrate users: %w", err)
		}
	}
	return mgr, nil
}

// ProvideRedisManager reads redis.instances. An empty section yields a
// manager with no clients. Each client gets its own metrics hook.
func ProvideRedisManager(i do.Injector) (*redis.Manager, error) {
	loader := do.MustInvoke[*config.Loader](i)
	var configs map[string]redis.Config
	if err := loader.UnmarshalKey("redis.instances", &configs); err != nil {
		return nil, fmt.Errorf("read redis config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mgr, err := redis.NewManager(ctx, configs, moduleLogger(i, "redis"))
	if err != nil {
		return nil, err
	}

	tm := do.MustInvoke[*telemetry.Manager](i)
	if tm.Enabled() {
		for _, name := range mgr.Names() {
			hook, err := redis.NewMetricsHook(tm.Meter(MeterName), name)
			if err != nil {
				_ = mgr.Close()
				return nil, err
			}
			mgr.Client(name).AddHook(hook)
		}
	}
	return mgr, nil
}

func ProvideRevocationStore(i do.Injector) (revocation.Store, error) {
	loader := do.MustInvoke[*config.Loader](i)
	var cfg revocation.Config
	if err := loader.UnmarshalKey("revocation", &cfg); err != nil {
		return nil, fmt.Errorf("read revocation config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := moduleLogger(i, "revocation")
	if cfg.Storage == "memory" {
		log.Warn("revocation store is in-process memory; sessions are lost on restart")
		return revocation.NewMemoryStore(cfg.CleanupInterval, log)
	}

	mgr, err := do.Invoke[*redis.Manager](i)
	if err != nil {
		return nil, err
	}
	client := mgr.Client(cfg.RedisInstance)
	if client == nil {
		return nil, fmt.Errorf("redis instance %q not found", cfg.RedisInstance)
	}
	return revocation.NewRedisStore(client, cfg.KeyPrefix, log), nil
}

// ProvideAuditEmitter returns a NopEmitter when audit is disabled
func ProvideAuditEmitter(i do.Injector) (audit.Emitter, error) {
	loader := do.MustInvoke[*config.Loader](i)
	var cfg audit.Config
	if err := loader.UnmarshalKey("audit", &cfg); err != nil {
		return nil, fmt.Errorf("read audit config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return audit.NopEmitter{}, nil
	}

	log := moduleLogger(i, "audit")
	var sink audit.Sink
	switch cfg.Sink {
	case "kafka":
		producer, err := audit.NewKafkaProducer(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		sink = audit.NewKafkaSink(producer, cfg.Kafka.Topic)
	default:
		sink = audit.NewLogSink(log)
	}
	dispatcher, err := audit.NewDispatcher(sink, cfg.PoolSize, log)
	if err != nil {
		_ = sink.Close()
		return nil, err
	}
	log.Debug("audit dispatcher started", zap.String("sink", cfg.Sink))
	return dispatcher, nil
}

func ProvideTokenCodec(i do.Injector) (*token.Codec, error) {
	loader := do.MustInvoke[*config.Loader](i)
	var cfg token.Config
	if err := loader.UnmarshalKey("token", &cfg); err != nil {
		return nil, fmt.Errorf("read token config: %w", err)
	}
	return token.NewCodec(cfg)
}

func credentialConfig(i do.Injector) (credential.Config, error) {
	loader := do.MustInvoke[*config.Loader](i)
	var cfg credential.Config
	if err := loader.UnmarshalKey("credential", &cfg); err != nil {
		return cfg, fmt.Errorf("read credential config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, cfg.Validate()
}

func ProvidePasswordService(i do.Injector) (*credential.PasswordService, error) {
	cfg, err := credentialConfig(i)
	if err != nil {
		return nil, err
	}
	return credential.NewPasswordService(cfg.Policy, cfg.BcryptCost), nil
}

func ProvideUserDirectory(i do.Injector) (*user.GormDirectory, error) {
	mgr, err := do.Invoke[*database.Manager](i)
	if err != nil {
		return nil, err
	}
	return user.NewGormDirectory(mgr.DB(DefaultDatabase)), nil
}

// ProvideSessionManager assembles the auth core. The login limiter shares
// the redis instance of the revocation store, or memory when that store
// is memory backed.
func ProvideSessionManager(i do.Injector) (*session.Manager, error) {
	loader := do.MustInvoke[*config.Loader](i)
	var cfg session.Config
	if err := loader.UnmarshalKey("session", &cfg); err != nil {
		return nil, fmt.Errorf("read session config: %w", err)
	}

	users, err := do.Invoke[*user.GormDirectory](i)
	if err != nil {
		return nil, err
	}
	passwords, err := do.Invoke[*credential.PasswordService](i)
	if err != nil {
		return nil, err
	}
	codec, err := do.Invoke[*token.Codec](i)
	if err != nil {
		return nil, err
	}
	store, err := do.Invoke[revocation.Store](i)
	if err != nil {
		return nil, err
	}
	emitter, err := do.Invoke[audit.Emitter](i)
	if err != nil {
		return nil, err
	}
	metrics, err := session.NewMetrics(do.MustInvoke[*telemetry.Manager](i).Meter(MeterName))
	if err != nil {
		return nil, err
	}

	opts := []session.Option{session.WithEmitter(emitter), session.WithMetrics(metrics)}
	credCfg, err := credentialConfig(i)
	if err != nil {
		return nil, err
	}
	if credCfg.LoginAttempt.Enabled {
		var attempts credential.AttemptStore = credential.NewMemoryAttemptStore()
		if rs, ok := store.(*revocation.RedisStore); ok {
			attempts = credential.NewRedisAttemptStore(rs.Client(), credCfg.LoginAttempt.KeyPrefix)
		}
		opts = append(opts, session.WithAttemptLimiter(credential.NewAttemptLimiter(attempts, credCfg.LoginAttempt)))
	}

	return session.NewManager(cfg, users, passwords, codec, store, opts...)
}

// ProvideHealthAggregator registers a checker per configured dependency.
// A dependency that failed to build still gets a checker reporting that
// failure, so an outage at startup keeps the service unhealthy.
func ProvideHealthAggregator(i do.Injector) (*health.Aggregator, error) {
	loader := do.MustInvoke[*config.Loader](i)
	var cfg health.Config
	if err := loader.UnmarshalKey("health", &cfg); err != nil {
		return nil, fmt.Errorf("read health config: %w", err)
	}
	cfg.ApplyDefaults()

	agg := health.NewAggregator(cfg.Timeout)
	if mgr, err := do.Invoke[*database.Manager](i); err != nil {
		agg.Register(failedChecker("database", err))
	} else {
		agg.Register(database.NewHealthChecker(mgr))
	}

	if mgr, err := do.Invoke[*redis.Manager](i); err != nil {
		agg.Register(failedChecker("redis", err))
	} else if len(mgr.Names()) > 0 {
		agg.Register(redis.NewHealthChecker(mgr))
	}

	if store, err := do.Invoke[revocation.Store](i); err != nil {
		agg.Register(failedChecker("revocation", err))
	} else {
		agg.Register(health.NewCheckerFunc("revocation", store.Ping))
	}
	return agg, nil
}

func failedChecker(name string, err error) health.Checker {
	return health.NewCheckerFunc(name, func(context.Context) error {
		return fmt.Errorf("%s unavailable: %w", name, err)
	})
}

func ProvideHTTPMetrics(i do.Injector) (*middleware.HTTPMetrics, error) {
	tm, err := do.Invoke[*telemetry.Manager](i)
	if err != nil {
		return nil, err
	}
	return middleware.NewHTTPMetrics(tm.Meter(MeterName))
}
