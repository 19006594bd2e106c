package split_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/engine/split"
)

// fakeSubmitter records submitted batches and fails the batch indexes listed
// in failAt.
type fakeSubmitter struct {
	batches [][]model.WorkItem
	failAt  map[int]bool
}

func (f *fakeSubmitter) SubmitJob(ctx context.Context, items []model.WorkItem) (string, error) {
	index := len(f.batches)
	f.batches = append(f.batches, items)
	if f.failAt[index] {
		return "", errors.New("backend unavailable")
	}
	return fmt.Sprintf("job-%d", index), nil
}

func makeItems(n int) []model.WorkItem {
	items := make([]model.WorkItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, model.WorkItem{Key: fmt.Sprintf("10.0.0.%d", i+1)})
	}
	return items
}

func TestSplitSizes(t *testing.T) {
	batches := split.Split(makeItems(7), 3)

	assert.Len(t, batches, 3)
	assert.Len(t, batches[0], 3)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 2)
}

func TestSplitPreservesOrderAndCoversAllItems(t *testing.T) {
	items := makeItems(10)
	batches := split.Split(items, 4)

	var flattened []model.WorkItem
	for _, b := range batches {
		flattened = append(flattened, b...)
	}
	assert.Equal(t, items, flattened)
}

func TestSplitIsDeterministic(t *testing.T) {
	items := makeItems(9)
	first := split.Split(items, 4)
	second := split.Split(items, 4)
	assert.Equal(t, first, second)
}

func TestSplitClampsBatchCount(t *testing.T) {
	// More batches than items: no batch may be empty.
	batches := split.Split(makeItems(2), 5)
	assert.Len(t, batches, 2)
	for _, b := range batches {
		assert.NotEmpty(t, b)
	}

	// A non-positive batch count degrades to a single batch.
	batches = split.Split(makeItems(3), 0)
	assert.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)
}

func TestSplitEmptyInput(t *testing.T) {
	assert.Nil(t, split.Split([]model.WorkItem{}, 3))
}

func TestSubmitBatchesSuccess(t *testing.T) {
	submitter := &fakeSubmitter{}
	s := split.NewSplitter(submitter, nil)

	jobIDs, err := s.SubmitBatches(context.Background(), makeItems(7), 3)

	assert.NoError(t, err)
	assert.Equal(t, []string{"job-0", "job-1", "job-2"}, jobIDs)
	assert.Len(t, submitter.batches, 3)
}

func TestSubmitBatchesPartialFailure(t *testing.T) {
	submitter := &fakeSubmitter{failAt: map[int]bool{1: true}}
	s := split.NewSplitter(submitter, nil)

	jobIDs, err := s.SubmitBatches(context.Background(), makeItems(7), 3)

	// The submitted subset is kept; nothing is rolled back.
	assert.Equal(t, []string{"job-0", "job-2"}, jobIDs)

	var partial *split.PartialSubmissionError
	assert.ErrorAs(t, err, &partial)
	assert.Equal(t, []int{1}, partial.FailedBatches)
	assert.Equal(t, []string{"job-0", "job-2"}, partial.JobIDs)
}

func TestSubmitBatchesAllFail(t *testing.T) {
	submitter := &fakeSubmitter{failAt: map[int]bool{0: true, 1: true}}
	s := split.NewSplitter(submitter, nil)

	jobIDs, err := s.SubmitBatches(context.Background(), makeItems(4), 2)

	assert.Nil(t, jobIDs)
	assert.Error(t, err)
	var partial *split.PartialSubmissionError
	assert.False(t, errors.As(err, &partial))
}

func TestSubmitBatchesEmptyInput(t *testing.T) {
	s := split.NewSplitter(&fakeSubmitter{}, nil)

	jobIDs, err := s.SubmitBatches(context.Background(), nil, 3)

	assert.Nil(t, jobIDs)
	assert.Error(t, err)
}
