// Package logging holds the process-wide logrus logger. Servers log to stdout
// and a rotated file; the terminal client logs to the file only.
package logging

import (
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds configuration for logging
type Config struct {
	Enabled    bool   // write to a rotated log file
	FilePath   string // log file location
	MaxSize    int    // megabytes before rotation
	MaxBackups int    // rotated files kept
	MaxAge     int    // days rotated files are kept
	Compress   bool   // gzip rotated files
	Level      string // trace, debug, info, warn, error, fatal or panic
	JSONFormat bool
	Console    bool // also write to stdout
}

// Logger is the global logger instance. It starts as a plain logrus logger
// so packages can log before InitLogger runs.
var Logger = logrus.New()

var (
	fileMu sync.Mutex
	file   *lumberjack.Logger
)

// InitLogger replaces the global logger with one built from config. A log
// file opened by an earlier call is closed.
func InitLogger(config *Config) *logrus.Logger {
	logger := logrus.New()

	level, levelErr := logrus.ParseLevel(config.Level)
	if levelErr != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.JSONFormat {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	out, rotated := buildOutput(config)
	logger.SetOutput(out)
	swapFile(rotated)
	Logger = logger

	if levelErr != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Level)
	}
	if rotated != nil {
		logger.WithFields(logrus.Fields{
			"path":         config.FilePath,
			"max_size_mb":  config.MaxSize,
			"max_backups":  config.MaxBackups,
			"max_age_days": config.MaxAge,
		}).Info("File logging enabled")
	}

	return logger
}

func buildOutput(config *Config) (io.Writer, *lumberjack.Logger) {
	var writers []io.Writer
	if config.Console {
		writers = append(writers, os.Stdout)
	}

	var rotated *lumberjack.Logger
	if config.Enabled && config.FilePath != "" {
		rotated = &lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		}
		writers = append(writers, rotated)
	}

	switch len(writers) {
	case 0:
		return io.Discard, rotated
	case 1:
		return writers[0], rotated
	default:
		return io.MultiWriter(writers...), rotated
	}
}

func swapFile(next *lumberjack.Logger) {
	fileMu.Lock()
	prev := file
	file = next
	fileMu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
}

// Close releases the log file, if any. Later log calls reopen it.
func Close() error {
	fileMu.Lock()
	defer fileMu.Unlock()
	if file == nil {
		return nil
	}
	return file.Close()
}

// Component returns an entry tagged with the subsystem that logs through it
func Component(name string) *logrus.Entry {
	return Logger.WithField("component", name)
}

// NewConfigFromEnv creates a Config from LOG_* environment variables
func NewConfigFromEnv() *Config {
	return &Config{
		Enabled:    getEnvBool("LOG_FILE_ENABLED", true),
		FilePath:   getEnv("LOG_FILE_PATH", "./logs/shoppinglist.log"),
		MaxSize:    getEnvInt("LOG_MAX_SIZE_MB", 100),
		MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		MaxAge:     getEnvInt("LOG_MAX_AGE_DAYS", 28),
		Compress:   getEnvBool("LOG_COMPRESS", true),
		Level:      getEnv("LOG_LEVEL", "info"),
		JSONFormat: getEnvBool("LOG_JSON_FORMAT", false),
		Console:    getEnvBool("LOG_CONSOLE", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
