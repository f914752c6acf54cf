package database

import (
	"fmt"
	"path/filepath"
	"time"

	"vault-planning/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultBusyTimeout bounds how long a writer waits on a locked database.
const DefaultBusyTimeout = 5 * time.Second

// RelPath is where the planning database lives inside a vault.
var RelPath = filepath.Join(".planning", "planning.db")

// Options controls how the planning database is opened.
type Options struct {
	BusyTimeout time.Duration
	LogLevel    string // silent, error, warn, info
}

// Open connects to the SQLite file at path in WAL mode and migrates the schema.
// Migration is additive: AutoMigrate only adds missing tables, columns and indexes.
func Open(path string, opts Options) (*gorm.DB, error) {
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = DefaultBusyTimeout
	}
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		path, busy.Milliseconds())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(ParseLogLevel(opts.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one connection: the store is a single logical writer
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates or extends every planning table.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Task{},
		&models.Timer{},
		&models.DayLog{},
		&models.UIState{},
		&models.VaultMeta{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ParseLogLevel maps a config string to a gorm log level, defaulting to warn.
func ParseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}
