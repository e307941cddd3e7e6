package logger

import (
	"path/filepath"
	"testing"

	"github.com/clatterlab/clatter/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Stdout(t *testing.T) {
	cfg := &config.LoggerConfig{}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	// defaults applied in place
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestNewLogger_File(t *testing.T) {
	cfg := &config.LoggerConfig{
		Output:   "file",
		FilePath: filepath.Join(t.TempDir(), "logs", "clatter.log"),
		Format:   "console",
	}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())
}

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, getLogLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, getLogLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, getLogLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, getLogLevel("nonsense"))
}
