// Package postgres registers the GORM dialector factory for PostgreSQL
// databases.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	gormstore "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/infrastructure/store/gormstore"
)

// init registers the PostgreSQL dialector factory with the gormstore
// registry.
func init() {
	gormstore.RegisterDialector("postgres", func(cfg gormstore.DatabaseConfig) (gorm.Dialector, error) {
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.Sslmode)
		return postgres.Open(dsn), nil
	})
}
