package database

import (
	"log"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate runs AutoMigrate for all persisted models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Tenant{},
		&model.Branch{},
		&model.User{},
		&model.InventoryItem{},
		&model.InventoryBatch{},
		&model.InventoryAdjustment{},
		&model.WasteEntry{},
		&model.ApprovalRequest{},
		&model.AuditLog{},
	)
}
