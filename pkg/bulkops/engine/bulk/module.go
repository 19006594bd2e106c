package bulk

import (
	"time"

	"go.uber.org/fx"

	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
	config "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/config"
	metrics "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/metrics"
	poll "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/poll"
	split "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/split"
)

// OrchestratorParams defines the dependencies for NewOrchestratorFromParams.
type OrchestratorParams struct {
	fx.In

	Config   *config.Config
	Splitter *split.Splitter
	Poller   *poll.Poller
	Store    port.HandleStore
	Archiver port.ResultArchiver `optional:"true"`
	Recorder metrics.MetricRecorder
	Tracer   metrics.Tracer
}

// NewOrchestratorFromParams assembles the Orchestrator from the Fx graph.
func NewOrchestratorFromParams(p OrchestratorParams) *Orchestrator {
	return NewOrchestrator(p.Splitter, p.Poller, p.Store, Options{
		Archiver:        p.Archiver,
		PollingInterval: time.Duration(p.Config.Cockpit.Orchestrator.PollingIntervalMs) * time.Millisecond,
		Recorder:        p.Recorder,
		Tracer:          p.Tracer,
	})
}

// Module is an Fx module that provides the splitter, the poller and the
// orchestrator.
var Module = fx.Options(
	fx.Provide(split.NewSplitter),
	fx.Provide(poll.NewPoller),
	fx.Provide(NewOrchestratorFromParams),
)
