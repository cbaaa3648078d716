package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/featherfn/metagate/internal/models"
)

// Migrate creates or updates the controller tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.Document{},
		&models.Subject{},
		&models.TriggerActivation{},
	)
}
