package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/config"
	applogger "github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection
type Database struct {
	DB *gorm.DB
}

// OpenSQLite opens (creating if needed) the sqlite database at path
func OpenSQLite(path string, zl *zap.Logger, level gormlogger.LogLevel) (*Database, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return open(sqlite.Open(path), zl, level, func(db *gorm.DB) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		// one writer; sqlite serializes writes anyway
		sqlDB.SetMaxOpenConns(1)
		return nil
	})
}

// OpenPostgres connects to postgres with the configured pool settings
func OpenPostgres(cfg *config.DatabaseConfig, zl *zap.Logger, level gormlogger.LogLevel) (*Database, error) {
	return open(postgres.Open(cfg.DSN()), zl, level, func(db *gorm.DB) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
		return nil
	})
}

func open(dialector gorm.Dialector, zl *zap.Logger, level gormlogger.LogLevel, configure func(*gorm.DB) error) (*Database, error) {
	if zl == nil {
		zl = zap.NewNop()
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 applogger.NewGormLogger(zl, level),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := configure(db); err != nil {
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}
	d := &Database{DB: db}
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return d, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
