// Package port defines the collaborator contracts consumed by the
// bulk-operation orchestrator. Concrete implementations live under
// infrastructure; the engine packages depend only on these interfaces so that
// tests can substitute in-memory fakes.
package port

import (
	"context"

	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
)

// JobSubmitter accepts one batch of work items and returns the backend job id
// tracking it, or an error when the submission call itself fails.
type JobSubmitter interface {
	SubmitJob(ctx context.Context, items []model.WorkItem) (string, error)
}

// JobStatusClient fetches the current status snapshot of one job by id.
// Implementations must normalize whatever wire shape the backend answers with
// into the canonical model.JobStatus; the engine never branches on raw shapes.
// An unknown job id is reported via exception.ErrJobNotFound.
type JobStatusClient interface {
	GetJobStatus(ctx context.Context, jobID string) (model.JobStatus, error)
}

// HandleStore persists the JobHandle of the in-flight bulk operation across
// process restarts. Load must be resilient to a missing or malformed stored
// value and report it as (nil, nil), never as an error.
type HandleStore interface {
	Save(ctx context.Context, handle model.JobHandle) error
	Load(ctx context.Context) (*model.JobHandle, error)
	Clear(ctx context.Context) error
}

// LookupService provides read-only reference data used to resolve
// human-readable names to ids before job submission.
type LookupService interface {
	FetchLookup(ctx context.Context, kind string) ([]model.LookupOption, error)
}

// ResultArchiver persists a terminal composite result for later inspection
// (e.g., as a Parquet object in an object store). Archiving failures never
// affect the composite verdict.
type ResultArchiver interface {
	Archive(ctx context.Context, composite model.CompositeStatus) (objectName string, err error)
}
