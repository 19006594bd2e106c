package backend

import (
	"go.uber.org/fx"

	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
)

// Module provides the in-process fake backend under each collaborator
// contract it implements.
var Module = fx.Options(
	fx.Provide(NewFakeBackend),
	fx.Provide(func(b *FakeBackend) port.JobSubmitter { return b }),
	fx.Provide(func(b *FakeBackend) port.JobStatusClient { return b }),
	fx.Provide(func(b *FakeBackend) port.LookupService { return b }),
)
