package taskqueue

import (
	"go.uber.org/fx"

	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
)

// Module is an Fx module that provides the task-queue Client under each of
// the collaborator contracts it implements.
var Module = fx.Options(
	fx.Provide(NewClient),
	fx.Provide(func(c *Client) port.JobSubmitter { return c }),
	fx.Provide(func(c *Client) port.JobStatusClient { return c }),
	fx.Provide(func(c *Client) port.LookupService { return c }),
)
