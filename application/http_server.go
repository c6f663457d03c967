package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/KOMKZ/go-yogan-auth/httpx"
	"github.com/KOMKZ/go-yogan-auth/logger"
	"github.com/KOMKZ/go-yogan-auth/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HTTPServer owns the gin engine and its listener
type HTTPServer struct {
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	cfg        ServerConfig
	logger     *logger.CtxZapLogger
}

// NewHTTPServer builds the engine with the middleware chain in order:
// trace id, metrics, request log, error logging, recovery.
func NewHTTPServer(cfg ServerConfig, mw MiddlewareConfig, httpxCfg httpx.ErrorLoggingConfig, metrics *middleware.HTTPMetrics, log *logger.CtxZapLogger) *HTTPServer {
	// route registration and gin's own errors go through zap
	gin.DefaultWriter = zap.NewStdLog(log.GetZapLogger()).Writer()
	gin.DefaultErrorWriter = zap.NewStdLog(log.GetZapLogger()).Writer()
	gin.SetMode(cfg.Mode)

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	if mw.TraceID.Enable {
		traceCfg := middleware.DefaultTraceConfig()
		traceCfg.TraceIDHeader = mw.TraceID.TraceIDHeader
		traceCfg.EnableResponseHeader = mw.TraceID.EnableResponseHeader
		engine.Use(middleware.TraceID(traceCfg))
	}
	if mw.Metrics.Enable && metrics != nil {
		engine.Use(metrics.Handler())
	}
	if mw.RequestLog.Enable {
		engine.Use(middleware.RequestLog(middleware.RequestLogConfig{SkipPaths: mw.RequestLog.SkipPaths}))
	}
	if httpxCfg.Enable {
		engine.Use(httpx.ErrorLoggingMiddleware(httpxCfg))
	}
	engine.Use(middleware.Recovery())

	engine.NoRoute(httpx.NoRouteHandler())
	engine.NoMethod(httpx.NoMethodHandler())

	return &HTTPServer{engine: engine, cfg: cfg, logger: log}
}

func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

// Start binds the port and serves in the background. A bind failure is
// returned synchronously.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", zap.Error(err))
		}
	}()
	s.logger.Info("http server started", zap.String("addr", ln.Addr().String()), zap.String("mode", s.cfg.Mode))
	return nil
}

// Addr is the bound address, empty before Start
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting and waits for in-flight requests until ctx ends
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
