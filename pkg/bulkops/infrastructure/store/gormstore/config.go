// Package gormstore provides a database-backed implementation of the
// HandleStore interface using GORM. The handle survives process restarts, so
// a reloaded console can resume tracking the jobs it submitted earlier.
package gormstore

import (
	"fmt"

	config "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/config"
	configbinder "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/configbinder"
)

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxOpenConns           int `yaml:"maxOpenConns"`
	MaxIdleConns           int `yaml:"maxIdleConns"`
	ConnMaxLifetimeMinutes int `yaml:"connMaxLifetimeMinutes"`
}

// DatabaseConfig describes one named database connection from the
// configuration's database section.
type DatabaseConfig struct {
	Type     string     `yaml:"type"`
	Host     string     `yaml:"host"`
	Port     int        `yaml:"port"`
	User     string     `yaml:"user"`
	Password string     `yaml:"password"`
	Database string     `yaml:"database"`
	Sslmode  string     `yaml:"sslmode"`
	Pool     PoolConfig `yaml:"pool"`
}

// ResolveDatabaseConfig extracts and decodes the named database configuration
// from the loaded application configuration.
func ResolveDatabaseConfig(cfg *config.Config, name string) (DatabaseConfig, error) {
	raw, ok := cfg.Cockpit.Databases[name]
	if !ok {
		return DatabaseConfig{}, fmt.Errorf("database configuration '%s' not found", name)
	}

	properties, ok := raw.(map[string]interface{})
	if !ok {
		return DatabaseConfig{}, fmt.Errorf("database configuration '%s' is not a mapping", name)
	}

	var dbConfig DatabaseConfig
	if err := configbinder.BindProperties(properties, &dbConfig); err != nil {
		return DatabaseConfig{}, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}
	if dbConfig.Type == "" {
		return DatabaseConfig{}, fmt.Errorf("database configuration '%s' has no type", name)
	}
	return dbConfig, nil
}
