package main

import (
	"context"

	"go.uber.org/fx"

	export "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/component/export"
	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
	config "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/config"
	bulk "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/bulk"
	inframetrics "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/infrastructure/metrics"
	inmemoryStore "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/infrastructure/store/inmemory"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"

	// Register the local storage adapter for the optional result archive.
	_ "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/adapter/storage/local"

	backend "github.com/nerdfunk-net/cockpit-ng-sub003/example/scan-and-add/internal/backend"
)

// newResultArchiver wires the Parquet archiver when archiving is enabled in
// the configuration; otherwise the orchestrator runs without one.
func newResultArchiver(cfg *config.Config) (port.ResultArchiver, error) {
	archiver, err := export.NewParquetArchiverFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if archiver == nil {
		return nil, nil
	}
	return archiver, nil
}

// GetApplicationOptions builds the uber-fx options for the example
// application.
func GetApplicationOptions(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig) []fx.Option {
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger.SetLogLevel(cfg.Cockpit.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Cockpit.System.Logging.Level)

	var options []fx.Option

	options = append(options, fx.Supply(
		cfg,
		fx.Annotate(appCtx, fx.As(new(context.Context))),
	))
	options = append(options, logger.Module)
	options = append(options, inframetrics.Module)
	options = append(options, inmemoryStore.Module)
	options = append(options, backend.Module)
	options = append(options, fx.Provide(newResultArchiver))
	options = append(options, bulk.Module)
	options = append(options, fx.Invoke(startScanAndAdd))

	return options
}
