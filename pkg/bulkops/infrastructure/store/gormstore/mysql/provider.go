// Package mysql registers the GORM dialector factory for MySQL databases.
package mysql

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	gormstore "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/infrastructure/store/gormstore"
)

// init registers the MySQL dialector factory with the gormstore registry.
func init() {
	gormstore.RegisterDialector("mysql", func(cfg gormstore.DatabaseConfig) (gorm.Dialector, error) {
		var authPart string
		if cfg.User != "" {
			authPart = cfg.User
			if cfg.Password != "" {
				authPart = fmt.Sprintf("%s:%s", cfg.User, cfg.Password)
			}
			authPart += "@"
		}
		dsn := fmt.Sprintf("%stcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			authPart, cfg.Host, cfg.Port, cfg.Database)
		return mysql.Open(dsn), nil
	})
}
