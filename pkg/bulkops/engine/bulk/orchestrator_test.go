package bulk_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/bulk"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/poll"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/split"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/exception"
)

// fakeBackend plays both the submitter and the status client. Submitted
// batches become jobs that report a terminal state immediately; items whose
// key contains "bad" fail their batch.
type fakeBackend struct {
	mu          sync.Mutex
	jobs        map[string][]model.WorkItem
	statusCalls map[string]int
	// hold keeps every job in RUNNING state until released.
	hold bool
	// failSubmit makes every submission fail.
	failSubmit bool
	// submitStarted and submitRelease, when set, gate SubmitJob so a test
	// can act while a submission is in flight.
	submitStarted chan struct{}
	submitRelease chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		jobs:        map[string][]model.WorkItem{},
		statusCalls: map[string]int{},
	}
}

func (f *fakeBackend) SubmitJob(ctx context.Context, items []model.WorkItem) (string, error) {
	if f.submitStarted != nil {
		f.submitStarted <- struct{}{}
		<-f.submitRelease
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubmit {
		return "", fmt.Errorf("submission rejected")
	}
	jobID := fmt.Sprintf("job-%d", len(f.jobs))
	f.jobs[jobID] = items
	return jobID, nil
}

func (f *fakeBackend) GetJobStatus(ctx context.Context, jobID string) (model.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls[jobID]++

	items, ok := f.jobs[jobID]
	if !ok {
		return model.JobStatus{}, exception.ErrJobNotFound
	}
	if f.hold {
		return model.JobStatus{JobID: jobID, State: model.StateRunning, Total: len(items)}, nil
	}

	status := model.JobStatus{
		JobID:     jobID,
		State:     model.StateSucceeded,
		Processed: len(items),
		Total:     len(items),
	}
	for _, item := range items {
		result := model.ItemResult{Key: item.Key, Outcome: model.OutcomeSuccess}
		if strings.Contains(item.Key, "bad") {
			result.Outcome = model.OutcomeError
			result.Message = "device unreachable"
			status.State = model.StateFailed
		}
		status.Items = append(status.Items, result)
	}
	return status, nil
}

func (f *fakeBackend) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold = false
}

func (f *fakeBackend) callsFor(jobID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls[jobID]
}

func (f *fakeBackend) jobCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

// fakeStore is an in-test handle store that counts operations.
type fakeStore struct {
	mu     sync.Mutex
	handle *model.JobHandle
	saves  int
	clears int
}

func (s *fakeStore) Save(ctx context.Context, handle model.JobHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := handle
	s.handle = &copied
	s.saves++
	return nil
}

func (s *fakeStore) Load(ctx context.Context) (*model.JobHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return nil, nil
	}
	copied := *s.handle
	return &copied, nil
}

func (s *fakeStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = nil
	s.clears++
	return nil
}

func (s *fakeStore) stored() *model.JobHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return nil
	}
	copied := *s.handle
	return &copied
}

func newOrchestrator(backend *fakeBackend, store *fakeStore) *bulk.Orchestrator {
	return bulk.NewOrchestrator(
		split.NewSplitter(backend, nil),
		poll.NewPoller(backend, nil, nil),
		store,
		bulk.Options{PollingInterval: time.Millisecond},
	)
}

func makeItems(keys ...string) []model.WorkItem {
	items := make([]model.WorkItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, model.WorkItem{Key: k})
	}
	return items
}

func waitDone(t *testing.T, o *bulk.Orchestrator) {
	t.Helper()
	done := o.Done()
	if done == nil {
		t.Fatal("nothing is being tracked")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("operation did not settle in time")
	}
}

func TestStartBulkOperationSettlesWithFailure(t *testing.T) {
	backend := newFakeBackend()
	store := &fakeStore{}
	o := newOrchestrator(backend, store)

	items := makeItems("10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4-bad", "10.0.0.5", "10.0.0.6", "10.0.0.7")
	handle, err := o.StartBulkOperation(context.Background(), items, 3)

	assert.NoError(t, err)
	assert.Equal(t, model.KindComposite, handle.Kind)
	assert.Len(t, handle.MemberIDs(), 3)

	waitDone(t, o)

	composite := o.CompositeProgress()
	// One failed member fails the whole composite.
	assert.Equal(t, model.StateFailed, composite.State)
	assert.Equal(t, 7, composite.Processed)
	assert.Equal(t, 7, composite.Total)
	assert.Len(t, composite.Items, 7)
	// Six devices onboarded, one unreachable.
	assert.Equal(t, 6, composite.Succeeded)
	assert.Equal(t, 1, composite.Failed)

	// Settling releases the durable handle.
	assert.Nil(t, store.stored())
	assert.Equal(t, 1, store.clears)
}

func TestStartBulkOperationAllSucceeded(t *testing.T) {
	backend := newFakeBackend()
	store := &fakeStore{}
	o := newOrchestrator(backend, store)

	_, err := o.StartBulkOperation(context.Background(), makeItems("10.0.0.1", "10.0.0.2"), 2)
	assert.NoError(t, err)

	waitDone(t, o)
	assert.Equal(t, model.StateSucceeded, o.CompositeProgress().State)
}

func TestStartBulkOperationPersistsHandleBeforeSettling(t *testing.T) {
	backend := newFakeBackend()
	backend.hold = true
	store := &fakeStore{}
	o := newOrchestrator(backend, store)

	handle, err := o.StartBulkOperation(context.Background(), makeItems("10.0.0.1", "10.0.0.2"), 2)
	assert.NoError(t, err)

	stored := store.stored()
	assert.NotNil(t, stored)
	assert.Equal(t, handle.MemberIDs(), stored.MemberIDs())

	o.Cancel()
}

func TestStartBulkOperationSingleBatchYieldsSingleHandle(t *testing.T) {
	backend := newFakeBackend()
	store := &fakeStore{}
	o := newOrchestrator(backend, store)

	handle, err := o.StartBulkOperation(context.Background(), makeItems("10.0.0.1", "10.0.0.2"), 1)
	assert.NoError(t, err)
	assert.Equal(t, model.KindSingle, handle.Kind)

	waitDone(t, o)
}

func TestSecondStartIsRejectedWhileTracking(t *testing.T) {
	backend := newFakeBackend()
	backend.hold = true
	store := &fakeStore{}
	o := newOrchestrator(backend, store)

	_, err := o.StartBulkOperation(context.Background(), makeItems("10.0.0.1"), 1)
	assert.NoError(t, err)

	_, err = o.StartBulkOperation(context.Background(), makeItems("10.0.0.2"), 1)
	assert.ErrorIs(t, err, bulk.ErrOperationInProgress)

	o.Cancel()
}

func TestStartWhileSubmissionInFlightIsRejected(t *testing.T) {
	backend := newFakeBackend()
	backend.hold = true
	backend.submitStarted = make(chan struct{}, 1)
	backend.submitRelease = make(chan struct{})
	store := &fakeStore{}
	o := newOrchestrator(backend, store)

	errCh := make(chan error, 1)
	go func() {
		_, err := o.StartBulkOperation(context.Background(), makeItems("10.0.0.1"), 1)
		errCh <- err
	}()

	// The first start is still inside its submission call; a second start
	// must be rejected rather than submit a competing operation.
	<-backend.submitStarted
	_, err := o.StartBulkOperation(context.Background(), makeItems("10.0.0.2"), 1)
	assert.ErrorIs(t, err, bulk.ErrOperationInProgress)

	close(backend.submitRelease)
	assert.NoError(t, <-errCh)
	assert.Equal(t, 1, backend.jobCount())

	o.Cancel()
}

func TestFailedStartReleasesTheGuard(t *testing.T) {
	backend := newFakeBackend()
	backend.failSubmit = true
	store := &fakeStore{}
	o := newOrchestrator(backend, store)

	_, err := o.StartBulkOperation(context.Background(), makeItems("10.0.0.1"), 1)
	assert.Error(t, err)

	backend.mu.Lock()
	backend.failSubmit = false
	backend.mu.Unlock()

	_, err = o.StartBulkOperation(context.Background(), makeItems("10.0.0.1"), 1)
	assert.NoError(t, err)
	waitDone(t, o)
}

func TestCancelKeepsPersistedHandle(t *testing.T) {
	backend := newFakeBackend()
	backend.hold = true
	store := &fakeStore{}
	o := newOrchestrator(backend, store)

	_, err := o.StartBulkOperation(context.Background(), makeItems("10.0.0.1", "10.0.0.2"), 2)
	assert.NoError(t, err)

	o.Cancel()

	// The backend jobs keep running; a later Resume must find the handle.
	assert.NotNil(t, store.stored())
}

func TestResetClearsEverything(t *testing.T) {
	backend := newFakeBackend()
	backend.hold = true
	store := &fakeStore{}
	o := newOrchestrator(backend, store)

	_, err := o.StartBulkOperation(context.Background(), makeItems("10.0.0.1"), 1)
	assert.NoError(t, err)

	assert.NoError(t, o.Reset(context.Background()))
	assert.Nil(t, store.stored())
	assert.True(t, o.Handle().IsZero())
	assert.Zero(t, o.CompositeProgress())
}

func TestResumeWithoutStoredHandle(t *testing.T) {
	o := newOrchestrator(newFakeBackend(), &fakeStore{})

	handle, err := o.Resume(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, handle)
}

func TestResumeTerminalHandleSettlesWithOneCheckPerMember(t *testing.T) {
	backend := newFakeBackend()
	jobA, _ := backend.SubmitJob(context.Background(), makeItems("10.0.0.1"))
	jobB, _ := backend.SubmitJob(context.Background(), makeItems("10.0.0.2"))

	store := &fakeStore{}
	assert.NoError(t, store.Save(context.Background(), model.NewCompositeHandle([]string{jobA, jobB})))

	o := newOrchestrator(backend, store)
	handle, err := o.Resume(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, handle)
	assert.Equal(t, 1, backend.callsFor(jobA))
	assert.Equal(t, 1, backend.callsFor(jobB))

	// Already terminal: settled immediately, no sessions started.
	assert.Equal(t, model.StateSucceeded, o.CompositeProgress().State)
	assert.Nil(t, store.stored())
	assert.Nil(t, o.Done())
}

func TestResumeUnknownJobSettlesAsFailed(t *testing.T) {
	backend := newFakeBackend()
	store := &fakeStore{}
	assert.NoError(t, store.Save(context.Background(), model.NewSingleHandle("long-gone")))

	o := newOrchestrator(backend, store)
	handle, err := o.Resume(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, handle)
	assert.Equal(t, model.StateFailed, o.CompositeProgress().State)
	assert.Nil(t, store.stored())
}

func TestResumeRunningHandleContinuesTracking(t *testing.T) {
	backend := newFakeBackend()
	backend.hold = true
	jobID, _ := backend.SubmitJob(context.Background(), makeItems("10.0.0.1", "10.0.0.2"))

	store := &fakeStore{}
	assert.NoError(t, store.Save(context.Background(), model.NewSingleHandle(jobID)))

	o := newOrchestrator(backend, store)
	handle, err := o.Resume(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, handle)
	assert.NotNil(t, o.Done())

	backend.release()
	waitDone(t, o)
	assert.Equal(t, model.StateSucceeded, o.CompositeProgress().State)
}
