package logger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const sqlModule = "auth_sql"

var passwordHashPattern = regexp.MustCompile(`\$2[aby]\$\d{2}\$[./A-Za-z0-9]{53}`)

// GormLogger routes gorm output through the auth_sql module logger
type GormLogger struct {
	slowThreshold time.Duration
	logLevel      gormlogger.LogLevel
}

// NewGormLogger creates a gorm logger. A zero threshold disables slow query warnings.
func NewGormLogger(slowThreshold time.Duration, level gormlogger.LogLevel) *GormLogger {
	return &GormLogger{slowThreshold: slowThreshold, logLevel: level}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= gormlogger.Info {
		DebugCtx(ctx, sqlModule, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= gormlogger.Warn {
		WarnCtx(ctx, sqlModule, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= gormlogger.Error {
		ErrorCtx(ctx, sqlModule, fmt.Sprintf(msg, data...))
	}
}

// Trace logs each statement with bcrypt hashes masked
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("sql", SanitizeSQL(sql)),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
	}

	switch {
	case err != nil && l.logLevel >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		ErrorCtx(ctx, sqlModule, "sql error", append(fields, zap.Error(err))...)
	case l.slowThreshold != 0 && elapsed > l.slowThreshold && l.logLevel >= gormlogger.Warn:
		WarnCtx(ctx, sqlModule, "slow query", append(fields, zap.Duration("threshold", l.slowThreshold))...)
	case l.logLevel >= gormlogger.Info:
		DebugCtx(ctx, sqlModule, "sql", fields...)
	}
}

// SanitizeSQL masks bcrypt hashes in interpolated statements
func SanitizeSQL(sql string) string {
	return passwordHashPattern.ReplaceAllString(sql, "***")
}
