// Package backend provides an in-process task-queue backend so the example
// runs without a live device-management API. Submitted jobs advance one item
// per status poll until they finish.
package backend

import (
	"context"
	"fmt"
	"strings"
	"sync"

	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/exception"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

type fakeJob struct {
	items     []model.WorkItem
	processed int
	results   []model.ItemResult
}

// FakeBackend simulates the task-queue API in process memory.
type FakeBackend struct {
	mu      sync.Mutex
	jobs    map[string]*fakeJob
	counter int
}

// NewFakeBackend creates an empty fake backend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{jobs: make(map[string]*fakeJob)}
}

// SubmitJob accepts a batch and returns a generated job id.
func (b *FakeBackend) SubmitJob(ctx context.Context, items []model.WorkItem) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.counter++
	jobID := fmt.Sprintf("job-%04d", b.counter)
	b.jobs[jobID] = &fakeJob{items: items}
	logger.Infof("FakeBackend: Accepted %d items as job '%s'.", len(items), jobID)
	return jobID, nil
}

// GetJobStatus reports the job's progress, advancing it by one item per
// poll. Items whose key contains "bad" fail, everything else succeeds.
func (b *FakeBackend) GetJobStatus(ctx context.Context, jobID string) (model.JobStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	job, ok := b.jobs[jobID]
	if !ok {
		return model.JobStatus{}, exception.ErrJobNotFound
	}

	if job.processed < len(job.items) {
		item := job.items[job.processed]
		result := model.ItemResult{Key: item.Key, Outcome: model.OutcomeSuccess, Message: "onboarded"}
		if strings.Contains(item.Key, "bad") {
			result.Outcome = model.OutcomeError
			result.Message = "device unreachable"
		}
		job.results = append(job.results, result)
		job.processed++
	}

	state := model.StateRunning
	if job.processed >= len(job.items) {
		state = model.StateSucceeded
		for _, r := range job.results {
			if r.Outcome == model.OutcomeError {
				state = model.StateFailed
				break
			}
		}
	}

	return model.JobStatus{
		JobID:     jobID,
		State:     state,
		Processed: job.processed,
		Total:     len(job.items),
		Items:     append([]model.ItemResult(nil), job.results...),
	}, nil
}

// FetchLookup serves a static set of reference data.
func (b *FakeBackend) FetchLookup(ctx context.Context, kind string) ([]model.LookupOption, error) {
	switch kind {
	case "roles":
		return []model.LookupOption{
			{ID: "1", Name: "access-switch"},
			{ID: "2", Name: "core-router"},
		}, nil
	case "locations":
		return []model.LookupOption{
			{ID: "10", Name: "dc-1"},
			{ID: "11", Name: "branch-7"},
		}, nil
	default:
		return nil, fmt.Errorf("unknown lookup kind '%s'", kind)
	}
}

var (
	_ port.JobSubmitter    = (*FakeBackend)(nil)
	_ port.JobStatusClient = (*FakeBackend)(nil)
	_ port.LookupService   = (*FakeBackend)(nil)
)
