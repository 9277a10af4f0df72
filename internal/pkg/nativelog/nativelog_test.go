package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDailyFilename(t *testing.T) {
	day := time.Date(2024, time.March, 7, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "stdout_3-7-24.log", DailyFilename(day))
}

func TestWriterRollsOverByDay(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(filepath.Join(dir, "nested"))
	require.NoError(t, err)

	day := time.Date(2024, time.March, 7, 23, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return day }
	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)

	day = day.Add(2 * time.Minute)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(dir, "nested", "stdout_3-7-24.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "nested", "stdout_3-8-24.log"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(second))
}

func TestNewZapLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewZapLogger(dir, false)
	require.NoError(t, err)

	logger.Info("hello from test")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, DailyFilename(time.Now())))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestBootstrapLoggerSkipsDebug(t *testing.T) {
	logger := NewBootstrapLogger()
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
