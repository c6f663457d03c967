package audit

import (
	"context"

	"github.com/KOMKZ/go-yogan-auth/logger"
	"go.uber.org/zap"
)

// LogSink writes events to the "audit" logger
type LogSink struct {
	logger *logger.CtxZapLogger
}

func NewLogSink(log *logger.CtxZapLogger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Write(ctx context.Context, event Event) error {
	s.logger.InfoCtx(ctx, event.Type,
		zap.String("user_id", event.UserID),
		zap.String("email", event.Email),
		zap.String("reason", event.Reason),
		zap.Time("occurred_at", event.OccurredAt))
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
