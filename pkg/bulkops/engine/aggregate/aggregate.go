// Package aggregate merges the status snapshots of the member jobs of one
// bulk operation into a single composite view.
package aggregate

import (
	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
)

// Aggregate derives the composite view from the member snapshots of one poll
// round. It is a pure function of its input: no I/O, no clock, no mutation of
// the passed snapshots, so repeated calls with the same input yield the same
// output.
//
// The derived state is conservative. A single failed or cancelled member fails
// the composite even while siblings are still running, because the operation
// as a whole can no longer fully succeed. The composite succeeds only when
// every member succeeded. With no members at all there is nothing left to
// wait for and the composite is reported as succeeded.
//
// Processed and Total are sums over members and Items is the concatenation of
// the member item lists in snapshot order. Succeeded and Failed count per-item
// outcomes across all members, matching the operator-facing "N onboarded,
// M failed" summary; one failed device in an otherwise clean batch counts as
// one failure, not as a failed batch. Member batches are disjoint, so no
// deduplication is needed. The derived State and the count fields are
// independent of snapshot order.
func Aggregate(snapshots []model.JobStatus) model.CompositeStatus {
	composite := model.CompositeStatus{}

	if len(snapshots) == 0 {
		composite.State = model.StateSucceeded
		return composite
	}

	anyFailed := false
	allSucceeded := true
	for _, s := range snapshots {
		composite.Processed += s.Processed
		composite.Total += s.Total
		composite.Items = append(composite.Items, s.Items...)
		for _, item := range s.Items {
			if item.Outcome == model.OutcomeError {
				composite.Failed++
			} else {
				composite.Succeeded++
			}
		}

		switch s.State {
		case model.StateSucceeded:
		case model.StateFailed, model.StateCancelled:
			anyFailed = true
			allSucceeded = false
		default:
			allSucceeded = false
		}
	}

	switch {
	case anyFailed:
		composite.State = model.StateFailed
	case allSucceeded:
		composite.State = model.StateSucceeded
	default:
		composite.State = model.StateRunning
	}
	return composite
}
