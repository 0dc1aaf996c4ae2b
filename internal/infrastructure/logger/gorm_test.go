package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func statement(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func observedGorm(cfg GormConfig) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), cfg), recorded
}

func TestParseGormLevel(t *testing.T) {
	cases := map[string]gormlogger.LogLevel{
		"silent":  gormlogger.Silent,
		"error":   gormlogger.Error,
		"warn":    gormlogger.Warn,
		"info":    gormlogger.Info,
		" DEBUG ": gormlogger.Info,
		"":        gormlogger.Warn,
		"verbose": gormlogger.Warn,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseGormLevel(in), "level %q", in)
	}
}

func TestNewGormLogger_Defaults(t *testing.T) {
	gl := NewGormLogger(nil, GormConfig{})
	assert.Equal(t, gormlogger.Warn, gl.level)
	assert.Equal(t, defaultSlowQuery, gl.slow)
	assert.False(t, gl.logNotFound)

	changed, ok := gl.LogMode(gormlogger.Info).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Info, changed.level)
	assert.Equal(t, gormlogger.Warn, gl.level, "LogMode must not mutate the receiver")
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	t.Run("failed statement", func(t *testing.T) {
		gl, recorded := observedGorm(GormConfig{Level: "error"})
		gl.Trace(ctx, time.Now(), statement("INSERT INTO orders", 0), errors.New("duplicate key"))
		require.Equal(t, 1, recorded.Len())
		entry := recorded.All()[0]
		assert.Equal(t, "sql failed", entry.Message)
		assert.Equal(t, "duplicate key", entry.ContextMap()["error"])
	})

	t.Run("record not found", func(t *testing.T) {
		gl, recorded := observedGorm(GormConfig{Level: "error"})
		gl.Trace(ctx, time.Now(), statement("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Zero(t, recorded.Len())

		gl, recorded = observedGorm(GormConfig{Level: "error", LogNotFound: true})
		gl.Trace(ctx, time.Now(), statement("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 1, recorded.Len())
	})

	t.Run("slow statement", func(t *testing.T) {
		gl, recorded := observedGorm(GormConfig{Level: "warn", SlowThreshold: time.Millisecond})
		gl.Trace(ctx, time.Now().Add(-time.Second), statement("SELECT pg_sleep(1)", 1), nil)
		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, zapcore.WarnLevel, recorded.All()[0].Level)
		assert.Contains(t, recorded.All()[0].ContextMap(), "threshold")
	})

	t.Run("slow logging disabled", func(t *testing.T) {
		gl, recorded := observedGorm(GormConfig{Level: "warn", SlowThreshold: -1})
		gl.Trace(ctx, time.Now().Add(-time.Second), statement("SELECT 1", 1), nil)
		assert.Zero(t, recorded.Len())
	})

	t.Run("silent", func(t *testing.T) {
		gl, recorded := observedGorm(GormConfig{Level: "silent"})
		gl.Trace(ctx, time.Now(), statement("SELECT 1", 1), errors.New("ignored"))
		assert.Zero(t, recorded.Len())
	})

	t.Run("rebuild context", func(t *testing.T) {
		gl, recorded := observedGorm(GormConfig{Level: "debug"})
		orgID, generationID := uuid.New(), uuid.New()

		rebuildCtx, l := WithOrganizationID(ctx, zap.NewNop(), orgID)
		rebuildCtx, _ = WithGenerationID(rebuildCtx, l, generationID)
		gl.Trace(rebuildCtx, time.Now(), statement("INSERT INTO product_inventory_summaries", 3), nil)

		require.Equal(t, 1, recorded.Len())
		entry := recorded.All()[0]
		assert.Equal(t, zapcore.DebugLevel, entry.Level)
		fields := entry.ContextMap()
		assert.Equal(t, orgID.String(), fields["organization_id"])
		assert.Equal(t, generationID.String(), fields["generation_id"])
		assert.EqualValues(t, 3, fields["rows"])
	})
}

func TestGormLogger_Printf(t *testing.T) {
	gl, recorded := observedGorm(GormConfig{Level: "warn"})
	ctx, _ := WithRequestID(context.Background(), nil, "req-9")

	gl.Info(ctx, "dropped %d", 1)
	gl.Warn(ctx, "replacing callback %s", "gorm:create")
	gl.Error(ctx, "failed: %v", errors.New("boom"))

	require.Equal(t, 2, recorded.Len())
	assert.Equal(t, "replacing callback gorm:create", recorded.All()[0].Message)
	assert.Equal(t, "req-9", recorded.All()[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.ErrorLevel, recorded.All()[1].Level)
}
