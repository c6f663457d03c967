// Package middleware holds the gin middleware of the auth service
package middleware

import (
	"github.com/KOMKZ/go-yogan-auth/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	TraceIDKeyDefault    = "trace_id"
	TraceIDHeaderDefault = "X-Trace-ID"
)

type TraceConfig struct {
	TraceIDHeader        string
	EnableResponseHeader bool
	Generator            func() string
}

func DefaultTraceConfig() TraceConfig {
	return TraceConfig{
		TraceIDHeader:        TraceIDHeaderDefault,
		EnableResponseHeader: true,
		Generator:            uuid.NewString,
	}
}

// TraceID takes the trace id from an active span, then the request header,
// and otherwise generates one. The id is put on the request context where
// logger.CtxZapLogger picks it up.
func TraceID(cfg TraceConfig) gin.HandlerFunc {
	if cfg.TraceIDHeader == "" {
		cfg.TraceIDHeader = TraceIDHeaderDefault
	}
	if cfg.Generator == nil {
		cfg.Generator = uuid.NewString
	}

	return func(c *gin.Context) {
		var traceID string
		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = c.GetHeader(cfg.TraceIDHeader)
			if traceID == "" || len(traceID) > 128 {
				traceID = cfg.Generator()
			}
			c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		}

		c.Set(TraceIDKeyDefault, traceID)
		if cfg.EnableResponseHeader {
			c.Writer.Header().Set(cfg.TraceIDHeader, traceID)
		}
		c.Next()
	}
}

func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKeyDefault)
}
