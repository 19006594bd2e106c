// Package bulk coordinates one bulk operation end to end: splitting the work
// into batches, tracking each member job and deriving the composite view.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	metrics "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/metrics"
	aggregate "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/aggregate"
	poll "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/poll"
	split "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/split"
	exception "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/exception"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

const moduleName = "orchestrator"

// ErrOperationInProgress is returned when a new bulk operation is started
// while another one is still being tracked.
var ErrOperationInProgress = errors.New("a bulk operation is already in progress")

// Orchestrator owns the lifecycle of one bulk operation at a time. It submits
// the member jobs, runs one polling session per member, merges the member
// snapshots into a composite view and settles the durable handle once the
// composite reaches a terminal state.
//
// All exported methods are safe for concurrent use. Member snapshots are
// funneled through a single aggregation goroutine, so the composite view is
// recomputed by exactly one writer regardless of how many polling sessions
// feed it.
type Orchestrator struct {
	splitter *split.Splitter
	poller   *poll.Poller
	store    port.HandleStore
	archiver port.ResultArchiver
	recorder metrics.MetricRecorder
	tracer   metrics.Tracer
	interval time.Duration

	mu        sync.Mutex
	handle    model.JobHandle
	memberIDs []string
	latest    map[string]model.JobStatus
	composite model.CompositeStatus
	cancel    context.CancelFunc
	done      chan struct{}
	running   bool
}

// Options configures optional orchestrator collaborators.
type Options struct {
	// Archiver, when set, persists the terminal composite result before the
	// handle is cleared. Archiving failures are logged, never escalated.
	Archiver port.ResultArchiver
	// PollingInterval overrides the default member polling interval.
	PollingInterval time.Duration
	// Recorder and Tracer default to no-ops when nil.
	Recorder metrics.MetricRecorder
	Tracer   metrics.Tracer
}

// NewOrchestrator creates a new Orchestrator instance.
func NewOrchestrator(splitter *split.Splitter, poller *poll.Poller, store port.HandleStore, opts Options) *Orchestrator {
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	interval := opts.PollingInterval
	if interval <= 0 {
		interval = poll.DefaultInterval
	}
	return &Orchestrator{
		splitter: splitter,
		poller:   poller,
		store:    store,
		archiver: opts.Archiver,
		recorder: recorder,
		tracer:   tracer,
		interval: interval,
	}
}

// StartBulkOperation splits items into batchCount batches, submits them and
// begins tracking the resulting member jobs. The durable handle is saved
// before tracking starts so that a process restart can resume.
//
// A partial submission failure is reported as a warning through the returned
// error while tracking proceeds for the successfully submitted subset;
// already-running batches are never rolled back.
func (o *Orchestrator) StartBulkOperation(ctx context.Context, items []model.WorkItem, batchCount int) (model.JobHandle, error) {
	// The flag is claimed before the lock is released so that two concurrent
	// starts can never both reach submission.
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return model.JobHandle{}, ErrOperationInProgress
	}
	o.running = true
	o.mu.Unlock()

	ctx, endSpan := o.tracer.StartSpan(ctx, "start_bulk_operation", map[string]interface{}{
		"item_count":  len(items),
		"batch_count": batchCount,
	})
	defer endSpan()

	// 1. Split and submit. A *split.PartialSubmissionError leaves a usable
	// subset of job ids; anything else aborts the start.
	jobIDs, submitErr := o.splitter.SubmitBatches(ctx, items, batchCount)
	var partial *split.PartialSubmissionError
	if submitErr != nil && !errors.As(submitErr, &partial) {
		o.tracer.RecordError(ctx, moduleName, submitErr)
		o.releaseClaim()
		return model.JobHandle{}, submitErr
	}
	if partial != nil {
		logger.Warnf("Orchestrator: Proceeding with %d of %d batches after partial submission failure.",
			len(jobIDs), len(jobIDs)+len(partial.FailedBatches))
	}

	// 2. Persist the handle before tracking starts, so a crash between
	// submission and the first poll still leaves a resumable record.
	handle := model.NewCompositeHandle(jobIDs)
	if len(jobIDs) == 1 {
		handle = model.NewSingleHandle(jobIDs[0])
	}
	if err := o.store.Save(ctx, handle); err != nil {
		logger.Errorf("Orchestrator: Failed to persist job handle: %v", err)
		o.releaseClaim()
		return handle, exception.NewOrchestrationError(moduleName, "failed to persist job handle", err, false)
	}

	// 3. Start the tracking sessions.
	o.track(handle)
	return handle, submitErr
}

// Resume picks up a previously persisted handle after a process restart.
// With no stored handle it returns (nil, nil) and does nothing.
//
// Each member gets exactly one immediate status check. If those checks show
// the composite already terminal (including members the backend no longer
// knows), the operation is settled right away and no polling sessions start;
// otherwise tracking continues as if the restart never happened.
func (o *Orchestrator) Resume(ctx context.Context) (*model.JobHandle, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrOperationInProgress
	}
	o.running = true
	o.mu.Unlock()

	stored, err := o.store.Load(ctx)
	if err != nil {
		o.releaseClaim()
		return nil, exception.NewOrchestrationError(moduleName, "failed to load persisted job handle", err, false)
	}
	if stored == nil {
		logger.Debugf("Orchestrator: No persisted job handle found, nothing to resume.")
		o.releaseClaim()
		return nil, nil
	}

	handle := *stored
	memberIDs := handle.MemberIDs()
	logger.Infof("Orchestrator: Resuming handle with %d member job(s).", len(memberIDs))

	// One status check per member. Poll maps an unknown job id to a synthetic
	// terminal FAILED snapshot, so a handle that outlived its jobs settles
	// here instead of polling forever.
	snapshots := make(map[string]model.JobStatus, len(memberIDs))
	for _, jobID := range memberIDs {
		status, pollErr := o.poller.Poll(ctx, jobID)
		if pollErr != nil {
			o.releaseClaim()
			return nil, pollErr
		}
		snapshots[jobID] = status
	}

	composite := aggregate.Aggregate(orderedSnapshots(memberIDs, snapshots))
	o.recorder.RecordCompositeState(ctx, composite.State)

	o.mu.Lock()
	o.handle = handle
	o.memberIDs = memberIDs
	o.latest = snapshots
	o.composite = composite
	o.mu.Unlock()

	if composite.State.IsTerminal() {
		logger.Infof("Orchestrator: Resumed operation is already terminal (%s), settling.", composite.State)
		o.settle(ctx, composite)
		o.releaseClaim()
		return &handle, nil
	}

	o.trackWithSnapshots(handle, snapshots)
	return &handle, nil
}

// CompositeProgress returns the current composite view. Before the first
// member snapshot arrives the zero value is returned.
func (o *Orchestrator) CompositeProgress() model.CompositeStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.composite
}

// Handle returns the handle of the tracked operation, or a zero handle when
// nothing is tracked.
func (o *Orchestrator) Handle() model.JobHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handle
}

// Done returns a channel that is closed once the tracked operation settles
// or is cancelled. It returns nil when nothing is being tracked.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

// Cancel stops the polling sessions cooperatively. In-flight status requests
// are discarded when they return. The backend jobs keep running and the
// persisted handle stays in place, so a later Resume picks the operation up
// again.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.cancel = nil
	o.running = false
	o.mu.Unlock()

	if cancel != nil {
		logger.Infof("Orchestrator: Cancelling tracking sessions.")
		cancel()
	}
}

// Reset cancels tracking and clears the persisted handle. Used when the
// operator explicitly abandons the operation, e.g. by starting a new scan.
func (o *Orchestrator) Reset(ctx context.Context) error {
	o.Cancel()

	o.mu.Lock()
	o.handle = model.JobHandle{}
	o.memberIDs = nil
	o.latest = nil
	o.composite = model.CompositeStatus{}
	o.mu.Unlock()

	if err := o.store.Clear(ctx); err != nil {
		return exception.NewOrchestrationError(moduleName, "failed to clear persisted job handle", err, false)
	}
	return nil
}

// releaseClaim frees the running flag after a start or resume attempt that
// never reached the tracking stage.
func (o *Orchestrator) releaseClaim() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

// track starts tracking with no prior snapshots.
func (o *Orchestrator) track(handle model.JobHandle) {
	o.trackWithSnapshots(handle, nil)
}

// trackWithSnapshots starts one polling session per member plus the single
// aggregation goroutine. Sessions run silent: transient poll errors are
// retried on the next tick because the jobs keep running server-side whether
// or not anybody watches.
func (o *Orchestrator) trackWithSnapshots(handle model.JobHandle, seed map[string]model.JobStatus) {
	ctx, cancel := context.WithCancel(context.Background())
	memberIDs := handle.MemberIDs()

	latest := make(map[string]model.JobStatus, len(memberIDs))
	for k, v := range seed {
		latest[k] = v
	}

	done := make(chan struct{})

	o.mu.Lock()
	o.handle = handle
	o.memberIDs = memberIDs
	o.latest = latest
	o.cancel = cancel
	o.done = done
	o.running = true
	o.mu.Unlock()

	updates := make(chan model.JobStatus, len(memberIDs))

	var wg sync.WaitGroup
	for _, jobID := range memberIDs {
		if st, ok := latest[jobID]; ok && st.State.IsTerminal() {
			// Already settled at resume time, no session needed.
			continue
		}
		wg.Add(1)
		go func(jobID string) {
			defer wg.Done()
			_, err := o.poller.Run(ctx, jobID, poll.SessionOptions{
				Interval: o.interval,
				Silent:   true,
				OnUpdate: func(status model.JobStatus) {
					select {
					case updates <- status:
					case <-ctx.Done():
					}
				},
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Orchestrator: Polling session for job '%s' ended with error: %v", jobID, err)
			}
		}(jobID)
	}

	go func() {
		wg.Wait()
		close(updates)
	}()

	go o.aggregateLoop(ctx, cancel, done, updates)
}

// aggregateLoop is the single consumer of member snapshots. Each update
// replaces that member's latest snapshot and triggers a synchronous
// recomputation of the composite view; the loop ends when the composite
// turns terminal or tracking is cancelled.
func (o *Orchestrator) aggregateLoop(ctx context.Context, cancel context.CancelFunc, done chan struct{}, updates <-chan model.JobStatus) {
	defer close(done)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-updates:
			if !ok {
				return
			}

			o.mu.Lock()
			if o.latest == nil {
				// Reset dropped the tracking state while this update was in
				// flight; the snapshot belongs to an abandoned operation.
				o.mu.Unlock()
				return
			}
			o.latest[status.JobID] = status
			composite := aggregate.Aggregate(orderedSnapshots(o.memberIDs, o.latest))
			o.composite = composite
			o.mu.Unlock()

			o.recorder.RecordCompositeState(ctx, composite.State)

			if composite.State.IsTerminal() {
				logger.Infof("Orchestrator: Composite reached terminal state %s (%d/%d items processed).",
					composite.State, composite.Processed, composite.Total)
				// Settlement must outlive the session context being torn down.
				o.settle(context.WithoutCancel(ctx), composite)
				o.mu.Lock()
				o.running = false
				o.mu.Unlock()
				return
			}
		}
	}
}

// settle archives the terminal composite result and clears the durable
// handle. Failures in either step are logged only: the verdict has been
// reached and must not be lost to a bookkeeping error.
func (o *Orchestrator) settle(ctx context.Context, composite model.CompositeStatus) {
	if o.archiver != nil {
		objectName, err := o.archiver.Archive(ctx, composite)
		if err != nil {
			logger.Errorf("Orchestrator: Failed to archive composite result: %v", err)
		} else {
			logger.Infof("Orchestrator: Composite result archived as '%s'.", objectName)
		}
	}
	if err := o.store.Clear(ctx); err != nil {
		logger.Errorf("Orchestrator: Failed to clear persisted job handle: %v", err)
	}
}

// orderedSnapshots lists the member snapshots in member order. Members that
// have not reported yet are represented as PENDING so the composite can never
// turn terminal before every member has been observed at least once.
func orderedSnapshots(memberIDs []string, latest map[string]model.JobStatus) []model.JobStatus {
	snapshots := make([]model.JobStatus, 0, len(memberIDs))
	for _, jobID := range memberIDs {
		if st, ok := latest[jobID]; ok {
			snapshots = append(snapshots, st)
			continue
		}
		snapshots = append(snapshots, model.JobStatus{
			JobID:   jobID,
			State:   model.StatePending,
			Message: fmt.Sprintf("job '%s' not yet observed", jobID),
		})
	}
	return snapshots
}
