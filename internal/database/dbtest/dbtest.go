// Package dbtest opens throwaway SQLite databases with the production
// migrations applied.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/swiftserve/swiftserve-backend/internal/config"
	"github.com/swiftserve/swiftserve-backend/internal/database"
	"gorm.io/gorm"
)

func New(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.InitDB(config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
