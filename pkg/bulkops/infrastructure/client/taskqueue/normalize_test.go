package taskqueue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/infrastructure/client/taskqueue"
)

func TestNormalizeLegacyShape(t *testing.T) {
	raw := map[string]interface{}{
		"status": "finished",
		"done":   3,
		"count":  3,
		"results": []interface{}{
			map[string]interface{}{"ip": "10.0.0.1", "ok": true},
			map[string]interface{}{"ip": "10.0.0.2", "ok": false, "msg": "auth failed"},
			map[string]interface{}{"host": "sw-03", "ok": true},
		},
	}

	status, err := taskqueue.NormalizeJobStatus("job-1", raw)

	assert.NoError(t, err)
	assert.Equal(t, "job-1", status.JobID)
	assert.Equal(t, model.StateSucceeded, status.State)
	assert.Equal(t, 3, status.Processed)
	assert.Equal(t, 3, status.Total)
	assert.Len(t, status.Items, 3)
	assert.Equal(t, "10.0.0.1", status.Items[0].Key)
	assert.Equal(t, model.OutcomeSuccess, status.Items[0].Outcome)
	assert.Equal(t, model.OutcomeError, status.Items[1].Outcome)
	assert.Equal(t, "auth failed", status.Items[1].Message)
	assert.Equal(t, "sw-03", status.Items[2].Key)
}

func TestNormalizePrefersCurrentFieldsOverLegacy(t *testing.T) {
	raw := map[string]interface{}{
		"state":     "running",
		"status":    "finished",
		"processed": 2,
		"done":      9,
		"total":     5,
		"count":     9,
	}

	status, err := taskqueue.NormalizeJobStatus("job-1", raw)

	assert.NoError(t, err)
	assert.Equal(t, model.StateRunning, status.State)
	assert.Equal(t, 2, status.Processed)
	assert.Equal(t, 5, status.Total)
}

func TestNormalizeStateVocabulary(t *testing.T) {
	cases := map[string]model.JobState{
		"pending":     model.StatePending,
		"queued":      model.StatePending,
		"RUNNING":     model.StateRunning,
		"in_progress": model.StateRunning,
		"success":     model.StateSucceeded,
		"completed":   model.StateSucceeded,
		"error":       model.StateFailed,
		"failure":     model.StateFailed,
		"canceled":    model.StateCancelled,
		"aborted":     model.StateCancelled,
	}
	for wire, want := range cases {
		status, err := taskqueue.NormalizeJobStatus("job-1", map[string]interface{}{"state": wire})
		assert.NoError(t, err)
		assert.Equal(t, want, status.State, "state %q", wire)
	}
}

func TestNormalizeUnknownStateIsRunning(t *testing.T) {
	status, err := taskqueue.NormalizeJobStatus("job-1", map[string]interface{}{"state": "telepathic"})

	assert.NoError(t, err)
	assert.Equal(t, model.StateRunning, status.State)
}

func TestNormalizeItemWithoutOutcomeSucceeds(t *testing.T) {
	raw := map[string]interface{}{
		"state": "succeeded",
		"items": []interface{}{
			map[string]interface{}{"key": "10.0.0.1"},
		},
	}

	status, err := taskqueue.NormalizeJobStatus("job-1", raw)

	assert.NoError(t, err)
	assert.Equal(t, model.OutcomeSuccess, status.Items[0].Outcome)
}

func TestNormalizeKeepsUnknownItemFieldsAsExtra(t *testing.T) {
	raw := map[string]interface{}{
		"state": "succeeded",
		"items": []interface{}{
			map[string]interface{}{"key": "10.0.0.1", "outcome": "success", "platform": "ios-xe"},
		},
	}

	status, err := taskqueue.NormalizeJobStatus("job-1", raw)

	assert.NoError(t, err)
	assert.Equal(t, "ios-xe", status.Items[0].Extra["platform"])
}

func TestNormalizeNumericStringsAreWidened(t *testing.T) {
	raw := map[string]interface{}{
		"state":     "running",
		"processed": "4",
		"total":     "10",
	}

	status, err := taskqueue.NormalizeJobStatus("job-1", raw)

	assert.NoError(t, err)
	assert.Equal(t, 4, status.Processed)
	assert.Equal(t, 10, status.Total)
}
