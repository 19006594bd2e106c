package inmemory

import (
	"go.uber.org/fx"

	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
)

// Module is an Fx module that provides the in-memory HandleStore.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewInMemoryHandleStore,
		fx.As(new(port.HandleStore)),
	)),
)
