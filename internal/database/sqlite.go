package database

import (
	"fmt"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Options tunes schema setup.
type Options struct {
	// SeedDemo installs the demo account through the migration ledger.
	SeedDemo bool
}

// OpenSQLite establishes a SQLite connection and performs schema migrations.
// The pool is limited to one connection, which also keeps shared in-memory
// databases alive for the lifetime of the handle.
func OpenSQLite(path string, logger *zap.Logger, options Options) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	models := append(store.Models(), &migrationRecord{})
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger, options); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path), zap.Bool("seed_demo", options.SeedDemo))
	}

	return db, nil
}
