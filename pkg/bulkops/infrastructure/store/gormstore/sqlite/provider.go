// Package sqlite registers the GORM dialector factory for SQLite databases.
package sqlite

import (
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	gormstore "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/infrastructure/store/gormstore"
)

// init registers the SQLite dialector factory with the gormstore registry.
func init() {
	gormstore.RegisterDialector("sqlite", func(cfg gormstore.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Database == "" {
			return nil, errors.New("sqlite database path cannot be empty")
		}
		// The SQLite dialector expects the file path directly.
		return sqlite.Open(cfg.Database), nil
	})
}
