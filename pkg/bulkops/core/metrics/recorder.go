package metrics

import (
	"context"
	"time"

	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
)

// MetricRecorder is an abstract interface for recording metrics related to
// bulk-operation execution: batch submissions, status polls and composite
// state changes. This facilitates integration with different metrics backends
// (e.g., Prometheus).
type MetricRecorder interface {
	// RecordSubmission records one batch submission attempt.
	//
	// ctx: The context for the operation.
	// batchIndex: The zero-based index of the batch within the bulk operation.
	// err: The submission error, or nil on success.
	RecordSubmission(ctx context.Context, batchIndex int, err error)

	// RecordPoll records one status poll of one job.
	//
	// ctx: The context for the operation.
	// jobID: The polled job id.
	// state: The reported state, or StatePending when the poll failed.
	// err: The transport error, or nil on success.
	RecordPoll(ctx context.Context, jobID string, state model.JobState, err error)

	// RecordCompositeState records the derived state of the composite view
	// after an aggregation pass.
	RecordCompositeState(ctx context.Context, state model.JobState)

	// RecordDuration records the execution time of a specific operation.
	//
	// name: The name of the duration to record (e.g., "poll_round_trip").
	// tags: Additional attributes to associate with the duration.
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}

// Tracer is an abstract interface for distributed tracing of orchestrator
// operations (submission, polling, aggregation).
type Tracer interface {
	// StartSpan starts a span for a named operation.
	//
	// Returns: A context with the new span set, and a function to end the span.
	// It is recommended to call the returned function in a defer statement.
	StartSpan(ctx context.Context, name string, attributes map[string]interface{}) (context.Context, func())

	// RecordError records an error in the current span.
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records an event in the current span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
