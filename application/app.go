package application

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/KOMKZ/go-yogan-auth/config"
	"github.com/KOMKZ/go-yogan-auth/di"
	"github.com/KOMKZ/go-yogan-auth/health"
	"github.com/KOMKZ/go-yogan-auth/httpx"
	"github.com/KOMKZ/go-yogan-auth/logger"
	"github.com/KOMKZ/go-yogan-auth/middleware"
	"github.com/KOMKZ/go-yogan-auth/session"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// State is the application lifecycle phase
type State int

const (
	StateInit State = iota
	StateSetup
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSetup:
		return "setup"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Application is the auth service process
type Application struct {
	injector *do.RootScope
	opts     di.ConfigOptions
	cfg      *AppConfig
	logger   *logger.CtxZapLogger
	server   *HTTPServer

	state State
	mu    sync.RWMutex
}

type Option func(*Application)

func WithConfigPath(path string) Option {
	return func(a *Application) { a.opts.ConfigPath = path }
}

// WithEnvPrefix enables <PREFIX>_SECTION_KEY overrides
func WithEnvPrefix(prefix string, keys ...string) Option {
	return func(a *Application) {
		a.opts.EnvPrefix = prefix
		a.opts.EnvKeys = keys
	}
}

// WithFlags layers command line values over every other source
func WithFlags(flags interface{}) Option {
	return func(a *Application) { a.opts.Flags = flags }
}

func New(opts ...Option) *Application {
	a := &Application{
		injector: do.New(),
		opts:     di.ConfigOptions{ConfigPath: "./configs"},
		state:    StateInit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Application) Injector() *do.RootScope {
	return a.injector
}

func (a *Application) Config() *AppConfig {
	return a.cfg
}

func (a *Application) Server() *HTTPServer {
	return a.server
}

func (a *Application) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Application) setState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = s
}

// Setup loads configuration and builds every component eagerly so that a
// bad secret or an unreachable store fails before the port is bound.
func (a *Application) Setup() error {
	a.setState(StateSetup)
	di.Register(a.injector, a.opts)

	loader, err := do.Invoke[*config.Loader](a.injector)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg, err = LoadAppConfig(loader)
	if err != nil {
		return err
	}
	a.logger, err = do.Invoke[*logger.CtxZapLogger](a.injector)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.logger.Info("setting up",
		zap.String("name", a.cfg.App.Name),
		zap.String("version", a.cfg.App.Version),
		zap.Strings("config_files", loader.GetLoadedFiles()))

	sessions, err := do.Invoke[*session.Manager](a.injector)
	if err != nil {
		return fmt.Errorf("init session manager: %w", err)
	}
	aggregator, err := do.Invoke[*health.Aggregator](a.injector)
	if err != nil {
		return fmt.Errorf("init health: %w", err)
	}
	aggregator.SetMetadata("service", a.cfg.App.Name)
	aggregator.SetMetadata("version", a.cfg.App.Version)
	metrics, err := do.Invoke[*middleware.HTTPMetrics](a.injector)
	if err != nil {
		return fmt.Errorf("init http metrics: %w", err)
	}

	a.server = NewHTTPServer(a.cfg.Server, a.cfg.Middleware, a.cfg.Httpx, metrics, a.logger)
	httpx.NewAuthHandler(sessions, aggregator).RegisterRoutes(a.server.Engine(), middleware.Auth(sessions))
	return nil
}

// Start serves HTTP; Setup must have succeeded
func (a *Application) Start() error {
	if a.server == nil {
		return fmt.Errorf("application not set up")
	}
	if err := a.server.Start(); err != nil {
		return err
	}
	a.setState(StateRunning)
	return nil
}

// Run sets up, serves and blocks until ctx is done or SIGINT/SIGTERM
// arrives, then shuts down within server.shutdown_timeout.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Setup(); err != nil {
		a.closeContainer()
		return err
	}
	if err := a.Start(); err != nil {
		a.closeContainer()
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	a.logger.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown drains HTTP first, then closes the container in reverse
// dependency order
func (a *Application) Shutdown(ctx context.Context) error {
	a.setState(StateStopping)
	var firstErr error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("http shutdown failed", zap.Error(err))
			firstErr = err
		}
	}
	if err := a.closeContainer(); err != nil && firstErr == nil {
		firstErr = err
	}
	a.setState(StateStopped)
	return firstErr
}

func (a *Application) closeContainer() error {
	report := a.injector.Shutdown()
	if report != nil && !report.Succeed {
		if a.logger != nil {
			a.logger.Warn("container shutdown reported errors", zap.Error(report))
		}
		logger.CloseAll()
		return report
	}
	logger.CloseAll()
	return nil
}

// CheckHealth builds the container without serving and runs every checker
func (a *Application) CheckHealth(ctx context.Context) (*health.Response, error) {
	di.Register(a.injector, a.opts)
	defer a.closeContainer()

	aggregator, err := do.Invoke[*health.Aggregator](a.injector)
	if err != nil {
		return nil, err
	}
	return aggregator.Check(ctx), nil
}
