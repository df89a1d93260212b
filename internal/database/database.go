package database

import (
	"embed"
	"errors"
	"fmt"
	"time"

	"gcsmedia/backend/internal/models"
	"gcsmedia/backend/pkg/config"
	phxlog "gcsmedia/backend/pkg/log"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	postgresdriver "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var DB *gorm.DB

// ConnectDB opens the database selected by cfg.DBDriver and stores it in DB.
func ConnectDB(cfg config.AppConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Environment == "development" {
		logLevel = logger.Warn
	}
	gormCfg := &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "postgres", "":
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	phxlog.L.Info("Database connection established", zap.String("driver", cfg.DBDriver))
	DB = db
	return db, nil
}

// MigrateDB brings the schema up to date. Postgres uses the embedded SQL
// migrations through golang-migrate; sqlite uses gorm's AutoMigrate.
func MigrateDB(db *gorm.DB, driver string) error {
	if db == nil {
		return fmt.Errorf("database connection is not initialized. Call ConnectDB first")
	}
	if driver == "sqlite" {
		if err := AutoMigrate(db); err != nil {
			return fmt.Errorf("sqlite auto-migration failed: %w", err)
		}
		return nil
	}
	return runMigrations(db)
}

// AutoMigrate creates the tables from the gorm models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Option{}, &models.User{}, &models.MediaObject{})
}

func runMigrations(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := postgresdriver.WithInstance(sqlDB, &postgresdriver.Config{})
	if err != nil {
		return fmt.Errorf("could not create postgres driver for migrate: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}

	phxlog.L.Info("Applying database migrations...")
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			phxlog.L.Info("No new database migrations to apply.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		phxlog.L.Warn("Could not read migration version after applying", zap.Error(err))
	} else {
		phxlog.L.Info("Database migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}

// GetDB returns the current database instance.
func GetDB() *gorm.DB {
	return DB
}
