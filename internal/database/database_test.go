package database

import (
	"path/filepath"
	"testing"

	"vault-planning/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestOpen_EnablesWALAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planning.db")
	db, err := Open(path, Options{LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	var mode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	require.Equal(t, "wal", mode)

	for _, table := range []string{"tasks", "task_timer", "day_log", "ui_state", "vault_meta"} {
		require.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestOpen_AddsMissingColumnsToOlderTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planning.db")
	db, err := Open(path, Options{LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropColumn(&models.Task{}, "md_rel_path"))
	require.NoError(t, Close(db))

	db, err = Open(path, Options{LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.True(t, db.Migrator().HasColumn(&models.Task{}, "md_rel_path"))
}

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, logger.Silent, ParseLogLevel("silent"))
	require.Equal(t, logger.Info, ParseLogLevel("info"))
	require.Equal(t, logger.Warn, ParseLogLevel(""))
}
