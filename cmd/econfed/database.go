package main

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/econdata/econfed/config"
	"github.com/econdata/econfed/internal/learned"
)

// openDatabase opens the learned-mapping store's database connection,
// applies its schema migrations, and sizes its connection pool from
// dbCfg. Supports both postgres and sqlite — econfed's zero-config
// default — since internal/learned's migrations ship both dialects.
func openDatabase(dbCfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dbCfg.Driver {
	case "postgres":
		dialector = postgres.Open(dbCfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(dbCfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", dbCfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)

	if err := learned.Migrate(sqlDB, dbCfg.Driver); err != nil {
		return nil, fmt.Errorf("failed to migrate learned-mapping store: %w", err)
	}

	logger.Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}
