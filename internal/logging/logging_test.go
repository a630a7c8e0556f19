package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewConsoleOnly(t *testing.T) {
	logger, flush, err := New("info", "")
	require.NoError(t, err)
	defer flush()

	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel), "debug should be filtered at info level")
	logger.Info("ping")
}

func TestNewInvalidLevel(t *testing.T) {
	_, _, err := New("chatty", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewWithFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	logger, flush, err := New("debug", path)
	require.NoError(t, err)

	logger.Info("artifact written", zap.String("path", "/tmp/mysql.sql"))
	flush()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "artifact written")
	assert.Contains(t, string(data), "/tmp/mysql.sql")
}

func TestNewFileSinkOpenFailure(t *testing.T) {
	_, _, err := New("info", filepath.Join(t.TempDir(), "missing", "run.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open log file")
}
