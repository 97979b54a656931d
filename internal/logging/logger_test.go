package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logEnvKeys = []string{
	"LOG_FILE_ENABLED", "LOG_FILE_PATH", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS",
	"LOG_MAX_AGE_DAYS", "LOG_COMPRESS", "LOG_LEVEL", "LOG_JSON_FORMAT", "LOG_CONSOLE",
}

func clearLogEnv(t *testing.T) {
	for _, key := range logEnvKeys {
		t.Setenv(key, "")
	}
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Run("uses default values when env vars not set", func(t *testing.T) {
		clearLogEnv(t)

		config := NewConfigFromEnv()

		assert.True(t, config.Enabled, "Should be enabled by default")
		assert.Equal(t, "./logs/shoppinglist.log", config.FilePath)
		assert.Equal(t, 100, config.MaxSize)
		assert.Equal(t, 3, config.MaxBackups)
		assert.Equal(t, 28, config.MaxAge)
		assert.True(t, config.Compress)
		assert.Equal(t, "info", config.Level)
		assert.False(t, config.JSONFormat)
		assert.True(t, config.Console)
	})

	t.Run("uses custom values from environment", func(t *testing.T) {
		t.Setenv("LOG_FILE_ENABLED", "false")
		t.Setenv("LOG_FILE_PATH", "/var/log/custom.log")
		t.Setenv("LOG_MAX_SIZE_MB", "50")
		t.Setenv("LOG_MAX_BACKUPS", "5")
		t.Setenv("LOG_MAX_AGE_DAYS", "7")
		t.Setenv("LOG_COMPRESS", "false")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("LOG_JSON_FORMAT", "true")
		t.Setenv("LOG_CONSOLE", "false")

		config := NewConfigFromEnv()

		assert.False(t, config.Enabled)
		assert.Equal(t, "/var/log/custom.log", config.FilePath)
		assert.Equal(t, 50, config.MaxSize)
		assert.Equal(t, 5, config.MaxBackups)
		assert.Equal(t, 7, config.MaxAge)
		assert.False(t, config.Compress)
		assert.Equal(t, "debug", config.Level)
		assert.True(t, config.JSONFormat)
		assert.False(t, config.Console)
	})

	t.Run("falls back to defaults on unparsable values", func(t *testing.T) {
		clearLogEnv(t)
		t.Setenv("LOG_MAX_SIZE_MB", "invalid")
		t.Setenv("LOG_MAX_BACKUPS", "not-a-number")
		t.Setenv("LOG_FILE_ENABLED", "not-a-bool")
		t.Setenv("LOG_JSON_FORMAT", "maybe")

		config := NewConfigFromEnv()

		assert.Equal(t, 100, config.MaxSize)
		assert.Equal(t, 3, config.MaxBackups)
		assert.True(t, config.Enabled)
		assert.False(t, config.JSONFormat)
	})
}

func TestInitLogger(t *testing.T) {
	t.Run("initializes with text format", func(t *testing.T) {
		logger := InitLogger(&Config{Level: "info", Console: true})

		assert.Equal(t, logrus.InfoLevel, logger.Level)
		assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
		assert.Same(t, Logger, logger)
	})

	t.Run("initializes with JSON format", func(t *testing.T) {
		logger := InitLogger(&Config{Level: "debug", JSONFormat: true})

		assert.Equal(t, logrus.DebugLevel, logger.Level)
		assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
	})

	t.Run("handles invalid log level", func(t *testing.T) {
		logger := InitLogger(&Config{Level: "invalid-level"})
		assert.Equal(t, logrus.InfoLevel, logger.Level)
	})

	t.Run("discards output with no console and no file", func(t *testing.T) {
		logger := InitLogger(&Config{Level: "info"})
		assert.Equal(t, io.Discard, logger.Out)
	})

	t.Run("writes to a rotated file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		logger := InitLogger(&Config{Enabled: true, FilePath: path, MaxSize: 1, Level: "info"})
		defer Close()

		logger.Info("hello from the test")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "hello from the test")
	})

	t.Run("accepts all valid log levels", func(t *testing.T) {
		levels := map[string]logrus.Level{
			"trace": logrus.TraceLevel,
			"debug": logrus.DebugLevel,
			"info":  logrus.InfoLevel,
			"warn":  logrus.WarnLevel,
			"error": logrus.ErrorLevel,
			"fatal": logrus.FatalLevel,
			"panic": logrus.PanicLevel,
		}

		for levelStr, expectedLevel := range levels {
			logger := InitLogger(&Config{Level: levelStr})
			assert.Equal(t, expectedLevel, logger.Level, "Level %s should be parsed correctly", levelStr)
		}
	})
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger(&Config{Level: "info", JSONFormat: true})
	logger.SetOutput(&buf)

	Component("persist").Info("saved")

	assert.Contains(t, buf.String(), `"component":"persist"`)
	assert.Contains(t, buf.String(), `"msg":"saved"`)
}

func TestClose(t *testing.T) {
	assert.NoError(t, Close(), "no file open")

	path := filepath.Join(t.TempDir(), "app.log")
	InitLogger(&Config{Enabled: true, FilePath: path, Level: "info"})
	require.NoError(t, Close())

	// Logging after close reopens the file
	Logger.Info("after close")
	require.NoError(t, Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after close")

	InitLogger(&Config{Level: "info"})
	assert.NoError(t, Close())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_INT", "42")

	assert.Equal(t, "test_value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default_value", getEnv("NONEXISTENT_VAR", "default_value"))
	assert.True(t, getEnvBool("TEST_BOOL", false))
	assert.True(t, getEnvBool("NONEXISTENT_BOOL", true))
	assert.Equal(t, 42, getEnvInt("TEST_INT", 0))
	assert.Equal(t, 99, getEnvInt("NONEXISTENT_INT", 99))
}
