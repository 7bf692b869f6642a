// Package dbtest provides throwaway SQLite databases for tests.
package dbtest

import (
	"strings"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stockpilot/internal/config"
	"stockpilot/internal/db"
)

// New opens a migrated in-memory database unique to t.
func New(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gormDB, err := db.Open(config.DriverSQLite, "file:"+name+"?mode=memory&cache=shared&_foreign_keys=on", logger.Silent)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// A single connection keeps the in-memory database alive and avoids table locks.
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gormDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gormDB
}
