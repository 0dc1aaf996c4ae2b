package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// GormConfig configures the GORM logger adapter.
type GormConfig struct {
	// Level is an application log level ("debug", "info", "warn", "error")
	// or "silent".
	Level string
	// SlowThreshold marks statements slower than this as warnings. Zero
	// means 200ms, negative disables slow query logging.
	SlowThreshold time.Duration
	// LogNotFound logs gorm.ErrRecordNotFound as an error. Snapshot lookups
	// treat a missing row as "not ready", so it is off by default.
	LogNotFound bool
}

// GormLogger routes GORM output to zap. Statements run during a rebuild
// carry the organization and generation from the context.
type GormLogger struct {
	log         *zap.Logger
	level       gormlogger.LogLevel
	slow        time.Duration
	logNotFound bool
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger creates a GORM logger writing to log
func NewGormLogger(log *zap.Logger, cfg GormConfig) *GormLogger {
	if log == nil {
		log = zap.NewNop()
	}
	slow := cfg.SlowThreshold
	if slow == 0 {
		slow = defaultSlowQuery
	}
	return &GormLogger{
		log:         log,
		level:       ParseGormLevel(cfg.Level),
		slow:        slow,
		logNotFound: cfg.LogNotFound,
	}
}

// ParseGormLevel maps an application log level to GORM's scale. SQL
// statements themselves are only traced at debug and info.
func ParseGormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug", "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// LogMode returns a copy at level
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, threshold gormlogger.LogLevel, lvl zapcore.Level, msg string, data []any) {
	if l.level < threshold {
		return
	}
	if ce := l.log.Check(lvl, fmt.Sprintf(msg, data...)); ce != nil {
		ce.Write(Fields(ctx)...)
	}
}

// Trace logs one executed statement: failures at error, slow statements at
// warn and everything else at debug.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var (
		lvl zapcore.Level
		msg string
	)
	switch {
	case err != nil && l.level >= gormlogger.Error:
		if !l.logNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		lvl, msg = zapcore.ErrorLevel, "sql failed"
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		lvl, msg = zapcore.WarnLevel, "slow sql"
	case l.level >= gormlogger.Info:
		lvl, msg = zapcore.DebugLevel, "sql"
	default:
		return
	}

	ce := l.log.Check(lvl, msg)
	if ce == nil {
		return
	}
	sql, rows := fc()
	fields := append(Fields(ctx),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	)
	if lvl == zapcore.WarnLevel {
		fields = append(fields, zap.Duration("threshold", l.slow))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}
