package db

import (
	"fmt"  // Error wrapping
	"time" // Pool timeouts

	"ppob_wallet/internal/config" // Connection settings

	"github.com/sirupsen/logrus" // Logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/driver/postgres"    // Postgres driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM query logging
)

// Open connects to the configured SQL database
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("driver %q has no SQL database", cfg.DBDriver)
	}

	level := logger.Warn
	if !cfg.IsProd && logrus.IsLevelEnabled(logrus.DebugLevel) {
		level = logger.Info // Log every statement while debugging
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true, // Ledger writes run in explicit transactions
		TranslateError:         true, // Unique violations surface as gorm.ErrDuplicatedKey
		Logger:                 logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)                  // Upper bound on concurrent ledger transactions
	sqlDB.SetMaxIdleConns(10)                  // Warm connections kept around
	sqlDB.SetConnMaxLifetime(30 * time.Minute) // Recycle long lived connections
	return db, nil
}
