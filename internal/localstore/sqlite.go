package localstore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// entry is the single table backing the sqlite driver: one row per key.
type entry struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     []byte `gorm:"column:value"`
	UpdatedAt time.Time
}

func (entry) TableName() string { return "kv" }

// SQLiteKV implements KV on a one-table sqlite database.
type SQLiteKV struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) a sqlite-backed store at path.
func OpenSQLite(path string) (*SQLiteKV, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // store logs through pkg/logger
	})
	if err != nil {
		return nil, fmt.Errorf("localstore/sqlite: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("localstore/sqlite: migrate: %w", err)
	}
	return &SQLiteKV{db: db}, nil
}

// DB exposes the underlying handle so other layers can share the same
// database file, e.g. the queue's failed-job table.
func (s *SQLiteKV) DB() *gorm.DB { return s.db }

func (s *SQLiteKV) Get(key string) ([]byte, error) {
	var e entry
	err := s.db.Where("key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("localstore/sqlite: get %s: %w", key, err)
	}
	return e.Value, nil
}

func (s *SQLiteKV) Set(key string, value []byte) error {
	if err := checkQuota(value); err != nil {
		return err
	}
	err := s.db.Save(&entry{Key: key, Value: value, UpdatedAt: time.Now()}).Error
	if err != nil {
		if strings.Contains(err.Error(), "database or disk is full") {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return fmt.Errorf("localstore/sqlite: set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Delete(key string) error {
	if err := s.db.Delete(&entry{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("localstore/sqlite: delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
