// Package split partitions a batch of work items into contiguous batches and
// submits each batch as an independent backend job.
package split

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	metrics "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/metrics"
	exception "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/exception"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

const moduleName = "splitter"

// Split partitions items into at most batchCount contiguous, order-preserving
// batches. The partitioning is deterministic: identical inputs always produce
// identical batches, so a resubmission after crash recovery is reproducible.
//
// batchCount is clamped to len(items) so that no batch is ever empty; sizes
// differ by at most one, with earlier batches absorbing the remainder
// (e.g., 7 items into 3 batches yields sizes [3, 2, 2]).
func Split[T any](items []T, batchCount int) [][]T {
	if batchCount < 1 {
		batchCount = 1
	}
	if len(items) == 0 {
		return nil
	}
	if batchCount > len(items) {
		batchCount = len(items)
	}

	base := len(items) / batchCount
	remainder := len(items) % batchCount

	batches := make([][]T, 0, batchCount)
	start := 0
	for i := 0; i < batchCount; i++ {
		size := base
		if i < remainder {
			size++
		}
		batches = append(batches, items[start:start+size])
		start += size
	}
	return batches
}

// PartialSubmissionError reports that one or more batch submissions failed
// while others succeeded. Already-submitted batches are never rolled back:
// abandoning running batches would waste completed work, so the orchestrator
// proceeds with the obtained subset and surfaces this error as a warning.
type PartialSubmissionError struct {
	// JobIDs holds the ids of the batches that were submitted successfully,
	// in batch order.
	JobIDs []string
	// FailedBatches holds the zero-based indexes of the batches whose
	// submission call failed.
	FailedBatches []int
	// Err aggregates the individual submission errors.
	Err error
}

// Error implements the error interface.
func (e *PartialSubmissionError) Error() string {
	return fmt.Sprintf("[%s] %d of %d batch submissions failed (batches %v): %v",
		moduleName, len(e.FailedBatches), len(e.FailedBatches)+len(e.JobIDs), e.FailedBatches, e.Err)
}

// Unwrap returns the aggregated submission errors.
func (e *PartialSubmissionError) Unwrap() error {
	return e.Err
}

// Splitter submits split batches through a JobSubmitter and records the
// obtained job ids.
type Splitter struct {
	submitter port.JobSubmitter
	recorder  metrics.MetricRecorder
}

// NewSplitter creates a new Splitter instance.
func NewSplitter(submitter port.JobSubmitter, recorder metrics.MetricRecorder) *Splitter {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &Splitter{
		submitter: submitter,
		recorder:  recorder,
	}
}

// SubmitBatches splits items into batchCount batches and submits each one as
// an independent job. It returns the job ids obtained, in batch order.
//
// If every submission fails, the returned error is a plain OrchestrationError.
// If only some fail, the returned error is a *PartialSubmissionError carrying
// the obtained job ids and the failed batch indexes; the caller is expected to
// treat it as a warning and keep tracking the submitted subset.
func (s *Splitter) SubmitBatches(ctx context.Context, items []model.WorkItem, batchCount int) ([]string, error) {
	if len(items) == 0 {
		return nil, exception.NewOrchestrationErrorf(moduleName, "no work items to submit")
	}

	batches := Split(items, batchCount)
	logger.Infof("Splitter: Submitting %d work items as %d batches.", len(items), len(batches))

	jobIDs := make([]string, 0, len(batches))
	var failedBatches []int
	var submitErrs error

	for i, batch := range batches {
		jobID, err := s.submitter.SubmitJob(ctx, batch)
		s.recorder.RecordSubmission(ctx, i, err)
		if err != nil {
			logger.Errorf("Splitter: Submission of batch %d (%d items) failed: %v", i, len(batch), err)
			failedBatches = append(failedBatches, i)
			submitErrs = multierror.Append(submitErrs, fmt.Errorf("batch %d: %w", i, err))
			continue
		}
		logger.Debugf("Splitter: Batch %d (%d items) submitted as job '%s'.", i, len(batch), jobID)
		jobIDs = append(jobIDs, jobID)
	}

	if len(failedBatches) == 0 {
		return jobIDs, nil
	}
	if len(jobIDs) == 0 {
		return nil, exception.NewOrchestrationError(moduleName, "all batch submissions failed", submitErrs, false)
	}
	return jobIDs, &PartialSubmissionError{
		JobIDs:        jobIDs,
		FailedBatches: failedBatches,
		Err:           submitErrs,
	}
}
