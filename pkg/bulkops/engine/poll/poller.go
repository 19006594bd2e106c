// Package poll drives the periodic status checks of submitted jobs until they
// reach a terminal state.
package poll

import (
	"context"
	"time"

	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	metrics "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/metrics"
	exception "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/exception"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

const moduleName = "poller"

// DefaultInterval is used when SessionOptions.Interval is zero.
const DefaultInterval = 3 * time.Second

// SessionOptions controls one polling session.
type SessionOptions struct {
	// Interval is the delay between the completion of one poll and the start
	// of the next. The first poll fires immediately.
	Interval time.Duration

	// Silent selects the background error policy: transient poll errors are
	// logged and retried on the next tick without limit, because nobody is
	// watching and the job keeps running server-side regardless. When false
	// the session is interactive: the first poll error halts the session so
	// the caller can surface it and let the user decide.
	Silent bool

	// OnUpdate is invoked with every successfully fetched snapshot, including
	// the terminal one. May be nil.
	OnUpdate func(status model.JobStatus)

	// OnError is invoked with every poll error before the retry-or-halt
	// decision is applied. May be nil.
	OnError func(err error)
}

// Poller fetches job status snapshots through a JobStatusClient and runs
// polling sessions until the observed job reaches a terminal state.
//
// A session issues at most one outstanding status request at any time: the
// next poll is scheduled only after the previous one has completed. Slow
// backend responses therefore stretch the effective interval instead of
// piling up concurrent requests.
type Poller struct {
	client   port.JobStatusClient
	recorder metrics.MetricRecorder
	tracer   metrics.Tracer
}

// NewPoller creates a new Poller instance.
func NewPoller(client port.JobStatusClient, recorder metrics.MetricRecorder, tracer metrics.Tracer) *Poller {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &Poller{
		client:   client,
		recorder: recorder,
		tracer:   tracer,
	}
}

// Poll performs exactly one status check of jobID.
//
// A job id the backend no longer knows is not an error here: the backend
// prunes finished jobs, so an unknown id after a restart means the job ended
// while nobody was watching. Poll maps it to a synthetic terminal FAILED
// snapshot so the caller can settle and release the stored handle instead of
// retrying forever.
func (p *Poller) Poll(ctx context.Context, jobID string) (model.JobStatus, error) {
	start := time.Now()
	status, err := p.client.GetJobStatus(ctx, jobID)
	p.recorder.RecordDuration(ctx, "poll_round_trip", time.Since(start), map[string]string{"job_id": jobID})

	if err != nil {
		if exception.IsJobNotFound(err) {
			logger.Warnf("Poller: Job '%s' is no longer known to the backend; treating it as failed.", jobID)
			status = model.JobStatus{
				JobID:   jobID,
				State:   model.StateFailed,
				Message: "job is no longer known to the backend",
			}
			p.recorder.RecordPoll(ctx, jobID, status.State, nil)
			return status, nil
		}
		p.recorder.RecordPoll(ctx, jobID, model.StatePending, err)
		return model.JobStatus{}, exception.NewOrchestrationError(moduleName, "status check failed", err, true)
	}

	p.recorder.RecordPoll(ctx, jobID, status.State, nil)
	return status, nil
}

// Run polls jobID until it reaches a terminal state, the context is cancelled,
// or the error policy halts the session. The first poll fires immediately;
// subsequent polls fire opts.Interval after the previous one completed.
//
// On cancellation the result of any in-flight request is discarded: Run
// returns the context error without invoking OnUpdate for data that arrived
// after the decision to stop. The backend job itself keeps running; stopping
// a session only stops watching.
func (p *Poller) Run(ctx context.Context, jobID string, opts SessionOptions) (model.JobStatus, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, endSpan := p.tracer.StartSpan(ctx, "poll_session", map[string]interface{}{"job_id": jobID})
	defer endSpan()

	logger.Debugf("Poller: Starting session for job '%s' (interval %s, silent=%t).", jobID, interval, opts.Silent)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := p.Poll(ctx, jobID)
		if ctx.Err() != nil {
			logger.Infof("Poller: Session for job '%s' cancelled.", jobID)
			return model.JobStatus{}, ctx.Err()
		}
		if err != nil {
			p.tracer.RecordError(ctx, moduleName, err)
			if opts.OnError != nil {
				opts.OnError(err)
			}
			if !opts.Silent {
				logger.Errorf("Poller: Halting interactive session for job '%s': %v", jobID, err)
				return model.JobStatus{}, err
			}
			logger.Warnf("Poller: Poll of job '%s' failed, will retry: %v", jobID, err)
		} else {
			if opts.OnUpdate != nil {
				opts.OnUpdate(status)
			}
			if status.State.IsTerminal() {
				logger.Infof("Poller: Job '%s' reached terminal state %s.", jobID, status.State)
				return status, nil
			}
		}

		select {
		case <-ctx.Done():
			logger.Infof("Poller: Session for job '%s' cancelled.", jobID)
			return model.JobStatus{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
