package middleware

import (
	"time"

	"github.com/KOMKZ/go-yogan-auth/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RequestLogConfig struct {
	SkipPaths []string
}

// RequestLog writes one structured line per request; level follows the
// status class. Bodies and headers are never logged since they carry
// credentials and tokens.
func RequestLog(cfg RequestLogConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("body_size", c.Writer.Size()),
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			fields = append(fields, zap.String("error", msg))
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			logger.ErrorCtx(ctx, "http", "request", fields...)
		case status >= 400:
			logger.WarnCtx(ctx, "http", "request", fields...)
		default:
			logger.InfoCtx(ctx, "http", "request", fields...)
		}
	}
}
