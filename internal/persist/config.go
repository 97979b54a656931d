package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shoppinglist/internal/database"

	"gorm.io/gorm"
)

// Backend names accepted by Open
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config selects and configures the storage backend
type Config struct {
	Backend      string
	Namespace    string
	DataDir      string
	SQLitePath   string
	WriteTimeout time.Duration
	Database     *database.Config // used by the postgres backend
}

// NewConfigFromEnv creates a persistence config from environment variables
func NewConfigFromEnv() *Config {
	dataDir := getEnv("PERSIST_DATA_DIR", "./data")
	return &Config{
		Backend:      getEnv("PERSIST_BACKEND", BackendFile),
		Namespace:    getEnv("PERSIST_NAMESPACE", DefaultNamespace),
		DataDir:      dataDir,
		SQLitePath:   getEnv("PERSIST_SQLITE_PATH", filepath.Join(dataDir, "shoppinglist.db")),
		WriteTimeout: getEnvDuration("PERSIST_WRITE_TIMEOUT", DefaultWriteTimeout),
		Database:     database.NewConfigFromEnv(),
	}
}

// Open builds the configured backend. Database backends get their table
// created if missing.
func Open(cfg *Config) (KVStore, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryKV(), nil

	case BackendFile, "":
		return NewFileKV(cfg.DataDir)

	case BackendSQLite:
		db, err := database.ConnectSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, closeOnError(db, err)
		}
		return NewGormKV(db), nil

	case BackendPostgres:
		dbConfig := cfg.Database
		if dbConfig == nil {
			dbConfig = database.NewConfigFromEnv()
		}
		db, err := database.Connect(dbConfig)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, closeOnError(db, err)
		}
		return NewGormKV(db), nil
	}

	return nil, fmt.Errorf("unknown persistence backend %q", cfg.Backend)
}

// closeOnError releases db after a failed setup step and returns err
func closeOnError(db *gorm.DB, err error) error {
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			return errors.Join(err, closeErr)
		}
	}
	return err
}

// BridgeOptions returns the bridge options implied by the config
func (c *Config) BridgeOptions() []BridgeOption {
	return []BridgeOption{
		WithNamespace(c.Namespace),
		WithWriteTimeout(c.WriteTimeout),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
