package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"klinika/models"
)

// RunMigrations creates or updates every content table.
func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("running database migrations")

	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Error("error running migrations", zap.Error(err))
		return fmt.Errorf("migrate: %w", err)
	}

	log.Info("migrations completed successfully")
	return nil
}
