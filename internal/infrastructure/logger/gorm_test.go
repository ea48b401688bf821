package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func statement() (string, int64) {
	return "DELETE FROM grid_snapshots", 3
}

func TestGormLogger_Messages(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info)

	gl.Info(context.Background(), "migrated %s", "grid_snapshots")
	gl.Warn(context.Background(), "warn %d", 1)
	gl.Error(context.Background(), "error")

	logs := recorded.All()
	require.Len(t, logs, 3)
	assert.Equal(t, "migrated grid_snapshots", logs[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs[2].Level)
	assert.Equal(t, "gorm", logs[0].LoggerName)
}

func TestGormLogger_LogMode(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info)

	silent := gl.LogMode(gormlogger.Silent)
	silent.Info(context.Background(), "dropped")
	silent.Trace(context.Background(), time.Now(), statement, errors.New("boom"))
	assert.Empty(t, recorded.All())

	gl.Info(context.Background(), "kept")
	assert.Len(t, recorded.All(), 1)
}

func TestGormLogger_Trace(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn)
		gl.Trace(context.Background(), time.Now(), statement, errors.New("disk full"))

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "SQL error", logs[0].Message)
		assert.Equal(t, "DELETE FROM grid_snapshots", logs[0].ContextMap()["sql"])
	})

	t.Run("record not found is not an error", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn)
		gl.Trace(context.Background(), time.Now(), statement, gormlogger.ErrRecordNotFound)
		assert.Empty(t, recorded.All())
	})

	t.Run("slow statement", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		gl.Trace(context.Background(), time.Now().Add(-time.Second), statement, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "slow SQL", logs[0].Message)
	})

	t.Run("statement carries request id", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info, WithSlowThreshold(0))
		ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-9")
		gl.Trace(ctx, time.Now().Add(-time.Second), statement, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.DebugLevel, logs[0].Level)
		assert.Equal(t, "req-9", logs[0].ContextMap()["request_id"])
	})
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel("info"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
	assert.Equal(t, gormlogger.Warn, GormLevel(""))
}
