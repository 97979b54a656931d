package persist

import (
	"context"
	"errors"
	"fmt"

	"shoppinglist/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormKV stores values in the kv_entries table (SQLite or PostgreSQL)
type GormKV struct {
	db *gorm.DB
}

// NewGormKV wraps an open database. The kv_entries table must exist,
// see database.AutoMigrate or the migrate command.
func NewGormKV(db *gorm.DB) *GormKV {
	return &GormKV{db: db}
}

// DB exposes the underlying connection for health checks
func (s *GormKV) DB() *gorm.DB {
	return s.db
}

// GetItem loads the value stored under key
func (s *GormKV) GetItem(ctx context.Context, key string) ([]byte, error) {
	var entry models.KVEntry
	if err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return entry.Value, nil
}

// SetItem inserts or overwrites the value under key
func (s *GormKV) SetItem(ctx context.Context, key string, value []byte) error {
	entry := models.KVEntry{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key. Missing keys are not an error.
func (s *GormKV) RemoveItem(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&models.KVEntry{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection
func (s *GormKV) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
