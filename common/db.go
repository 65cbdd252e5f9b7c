package common

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"klinika/config"
)

func gormConfig(cfg *config.Config) *gorm.Config {
	level := logger.Warn
	if cfg.IsProduction() {
		level = logger.Error
	}
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(level),
	}
}

// ConnectDb opens the content database selected by DB_DRIVER.
func ConnectDb(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL not set")
		}
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite", "":
		if cfg.SQLiteDB == "" {
			return nil, fmt.Errorf("SQLITE_DB not set")
		}
		dialector = sqlite.Open(cfg.SQLiteDB)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, gormConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	log.Info("connected to database", zap.String("driver", dialector.Name()))
	return db, nil
}

// ConnectAnalyticsDb opens the separate sqlite file used for view events.
// It returns nil when ANALYTICS_DB is not set, which disables analytics.
func ConnectAnalyticsDb(cfg *config.Config, log *zap.Logger) *gorm.DB {
	if cfg.AnalyticsDB == "" {
		log.Info("ANALYTICS_DB not set, analytics disabled")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(cfg.AnalyticsDB), gormConfig(cfg))
	if err != nil {
		log.Error("error opening analytics sqlite db", zap.Error(err))
		return nil
	}
	log.Info("opened analytics sqlite db", zap.String("path", cfg.AnalyticsDB))
	return db
}
