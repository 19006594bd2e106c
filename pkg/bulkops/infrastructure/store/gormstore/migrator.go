package gormstore

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationsTable = "bulk_job_handles_migrations"

// getDatabaseDriver retrieves a migrate/v4 Driver based on the database type.
func getDatabaseDriver(sqlDB *sql.DB, dbType string) (database.Driver, error) {
	switch dbType {
	case "postgres":
		return migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{
			MigrationsTable: migrationsTable,
		})
	case "mysql":
		return migratemysql.WithInstance(sqlDB, &migratemysql.Config{
			MigrationsTable: migrationsTable,
		})
	case "sqlite":
		return migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{
			MigrationsTable: migrationsTable,
		})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", dbType)
	}
}

// Migrate applies the embedded schema migrations for the handle table.
// Running against an up-to-date schema is a no-op.
func Migrate(db *gorm.DB, dbType string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sourceDriver, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create iofs source driver: %w", err)
	}

	dbDriver, err := getDatabaseDriver(sqlDB, dbType)
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	mInstance, err := migrate.NewWithInstance("iofs", sourceDriver, dbType, dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := mInstance.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed (DB: %s): %w", dbType, err)
	}

	logger.Infof("Handle store schema is up to date (%s).", dbType)
	return nil
}
