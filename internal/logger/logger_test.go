package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"stockpilot/internal/config"
)

func TestNew_Level(t *testing.T) {
	log, err := New(&config.Config{LogLevel: "warn", LogMode: "production"})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&config.Config{LogLevel: "loud", LogMode: "development"})
	assert.Error(t, err)
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(&config.Config{LogLevel: "info", LogMode: "development", LogFile: path})
	require.NoError(t, err)

	log.Info("written to file")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
