package db

import (
	"fmt"

	"gorm.io/gorm"

	"stockpilot/internal/model"
)

// Tables lists every persisted model in dependency order.
var Tables = []interface{}{
	&model.User{},
	&model.Product{},
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Tables...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Reset drops every table and recreates the schema.
func Reset(db *gorm.DB) error {
	for i := len(Tables) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(Tables[i]); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return Migrate(db)
}
