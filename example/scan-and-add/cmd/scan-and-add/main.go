package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	_ "embed"

	"go.uber.org/fx"

	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	bulk "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/bulk"
	diff "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/diff"
	split "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/split"
	wizard "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/wizard"
	config "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/config"
	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

// embeddedConfig holds the application's YAML configuration file content.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// startScanAndAdd registers the Fx hook that drives the example flow: a
// three-phase wizard whose review phase submits a bulk onboarding operation
// against the in-process backend, followed by a configuration diff of one
// onboarded device.
func startScanAndAdd(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	orchestrator *bulk.Orchestrator,
	lookup port.LookupService,
	cfg *config.Config,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in scan-and-add flow: %v", r)
					}
					if err := shutdowner.Shutdown(); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()
				runScanAndAdd(appCtx, orchestrator, lookup, cfg)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			orchestrator.Cancel()
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}

// runScanAndAdd walks the wizard from target collection to a settled bulk
// operation and finishes with a diff of one device's attributes.
func runScanAndAdd(ctx context.Context, orchestrator *bulk.Orchestrator, lookup port.LookupService, cfg *config.Config) {
	// A reloaded session picks up where it left off.
	if handle, err := orchestrator.Resume(ctx); err != nil {
		logger.Errorf("Resume failed: %v", err)
		return
	} else if handle != nil {
		logger.Infof("Resumed a previous bulk operation (%s).", handle.JobID)
		waitAndReport(ctx, orchestrator)
		return
	}

	roles, err := lookup.FetchLookup(ctx, "roles")
	if err != nil {
		logger.Errorf("Failed to fetch roles: %v", err)
		return
	}
	logger.Infof("Resolved %d device roles from lookup data.", len(roles))

	validators := map[wizard.Phase]wizard.Validator{
		wizard.PhaseTargets:   requireKey("devices"),
		wizard.PhaseConfigure: requireKey("role"),
	}
	machine := wizard.NewMachine(validators, wizard.Hooks{
		Submit: func(ctx context.Context, data map[string]interface{}) error {
			items := data["devices"].([]model.WorkItem)
			for i := range items {
				items[i].Attributes = map[string]interface{}{"role": data["role"]}
			}
			_, err := orchestrator.StartBulkOperation(ctx, items, cfg.Cockpit.Orchestrator.BatchCount)
			var partial *split.PartialSubmissionError
			if errors.As(err, &partial) {
				// The submitted subset is already being tracked; the review
				// phase must show it rather than bounce back to configure.
				return &wizard.SubmitWarning{Err: err}
			}
			return err
		},
		InvalidateScan: func(ctx context.Context) error {
			return orchestrator.Reset(ctx)
		},
	})

	machine.SetData(map[string]interface{}{"devices": []model.WorkItem{
		{Key: "10.0.0.1"},
		{Key: "10.0.0.2"},
		{Key: "10.0.0.3"},
		{Key: "10.0.0.4-bad"},
		{Key: "10.0.0.5"},
		{Key: "10.0.0.6"},
		{Key: "10.0.0.7"},
	}})
	if err := machine.Advance(ctx); err != nil {
		logger.Errorf("Advance to configure failed: %v", err)
		return
	}

	machine.SetData(map[string]interface{}{"role": roles[0].Name})
	if err := machine.Advance(ctx); err != nil {
		var warn *wizard.SubmitWarning
		if !errors.As(err, &warn) {
			logger.Errorf("Advance to review failed: %v", err)
			return
		}
		logger.Warnf("Proceeding to review with a degraded submission: %v", warn.Err)
	}

	waitAndReport(ctx, orchestrator)

	// Compare the expected onboarding attributes with what a backend record
	// would report for one device.
	expected := map[string]interface{}{"role": roles[0].Name, "location": "dc-1", "platform": "ios"}
	actual := map[string]interface{}{"role": roles[0].Name, "location": "dc-2", "last_seen": "2026-08-25"}
	rows, verdict := diff.Compare(expected, actual, diff.Options{IgnoredKeys: []string{"last_seen"}})
	logger.Infof("Diff verdict for 10.0.0.1: %s (remediation: %s)", verdict, diff.RemediationFor(verdict))
	for _, row := range rows {
		logger.Infof("  %-10s %-14s left=%v right=%v", row.Key, row.Classification, row.LeftValue, row.RightValue)
	}
}

// waitAndReport blocks until the tracked operation settles and logs the
// composite outcome.
func waitAndReport(ctx context.Context, orchestrator *bulk.Orchestrator) {
	// A nil channel means the operation settled synchronously (e.g. a resumed
	// handle that was already terminal); the composite is final either way.
	if done := orchestrator.Done(); done != nil {
		select {
		case <-ctx.Done():
			return
		case <-done:
		}
	}

	composite := orchestrator.CompositeProgress()
	logger.Infof("Bulk operation settled: state=%s processed=%d/%d (items succeeded=%d failed=%d)",
		composite.State, composite.Processed, composite.Total, composite.Succeeded, composite.Failed)
	for _, item := range composite.Items {
		logger.Infof("  %-14s %-8s %s", item.Key, item.Outcome, item.Message)
	}
}

// requireKey builds a validator demanding a non-nil value for one key.
func requireKey(key string) wizard.Validator {
	return func(data map[string]interface{}) error {
		if data[key] == nil {
			return &missingFieldError{field: key}
		}
		return nil
	}
}

type missingFieldError struct {
	field string
}

func (e *missingFieldError) Error() string {
	return "missing required field '" + e.field + "'"
}

// main is the application entry point.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Stopping the bulk operation...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	fxApp := fx.New(GetApplicationOptions(ctx, envFilePath, embeddedConfig)...)
	fxApp.Run()
	if fxApp.Err() != nil {
		logger.Fatalf("Application run failed: %v", fxApp.Err())
	}
	os.Exit(0)
}
