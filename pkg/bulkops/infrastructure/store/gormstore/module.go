package gormstore

import (
	"go.uber.org/fx"

	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
	config "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/config"
)

// NewHandleStoreFromConfig resolves the database named by the orchestrator's
// handleStoreRef, connects, migrates the schema and returns the store.
func NewHandleStoreFromConfig(cfg *config.Config) (*GormHandleStore, error) {
	name := cfg.Cockpit.Orchestrator.HandleStoreRef
	dbConfig, err := ResolveDatabaseConfig(cfg, name)
	if err != nil {
		return nil, err
	}

	db, err := Connect(dbConfig)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, dbConfig.Type); err != nil {
		return nil, err
	}
	return NewGormHandleStore(db, DefaultScope), nil
}

// Module is an Fx module that provides the database-backed HandleStore.
// The concrete driver subpackages (sqlite, mysql, postgres) must be imported
// by the application to register their dialectors.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewHandleStoreFromConfig,
		fx.As(new(port.HandleStore)),
	)),
)
