package taskqueue

import (
	"strings"

	"github.com/mitchellh/mapstructure"

	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/exception"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

// wireStatus is the superset of the status shapes the backend has answered
// with over time. The current shape uses state/processed/total/items; older
// deployments answer with status/done/count/results and per-item ok flags.
// Both field families are decoded and the newer one wins when present.
type wireStatus struct {
	JobID string `mapstructure:"job_id"`

	State  string `mapstructure:"state"`
	Status string `mapstructure:"status"`

	Processed int `mapstructure:"processed"`
	Done      int `mapstructure:"done"`
	Total     int `mapstructure:"total"`
	Count     int `mapstructure:"count"`

	Message string `mapstructure:"message"`

	Items   []wireItem `mapstructure:"items"`
	Results []wireItem `mapstructure:"results"`
}

type wireItem struct {
	Key     string `mapstructure:"key"`
	IP      string `mapstructure:"ip"`
	Host    string `mapstructure:"host"`
	Outcome string `mapstructure:"outcome"`
	OK      *bool  `mapstructure:"ok"`
	Message string `mapstructure:"message"`
	Msg     string `mapstructure:"msg"`

	Extra map[string]interface{} `mapstructure:",remain"`
}

// NormalizeJobStatus converts a raw status answer into the canonical
// model.JobStatus. Callers above this point never branch on wire shapes.
func NormalizeJobStatus(jobID string, raw map[string]interface{}) (model.JobStatus, error) {
	var wire wireStatus
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &wire,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return model.JobStatus{}, exception.NewOrchestrationError(ModuleTaskQueueClient, "failed to build status decoder", err, false)
	}
	if err := decoder.Decode(raw); err != nil {
		return model.JobStatus{}, exception.NewOrchestrationError(ModuleTaskQueueClient, "failed to normalize status response", err, false)
	}

	status := model.JobStatus{
		JobID:   firstNonEmpty(wire.JobID, jobID),
		State:   normalizeState(firstNonEmpty(wire.State, wire.Status)),
		Message: wire.Message,
	}

	status.Processed = wire.Processed
	if status.Processed == 0 {
		status.Processed = wire.Done
	}
	status.Total = wire.Total
	if status.Total == 0 {
		status.Total = wire.Count
	}

	items := wire.Items
	if len(items) == 0 {
		items = wire.Results
	}
	for _, item := range items {
		status.Items = append(status.Items, normalizeItem(item))
	}
	return status, nil
}

// normalizeState maps the backend's state vocabulary, old and new, onto the
// canonical states. Unknown values are reported as RUNNING: the safe reading
// of a state we cannot classify is "not finished yet", which keeps the poll
// loop alive instead of settling on a guess.
func normalizeState(state string) model.JobState {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "pending", "queued", "waiting":
		return model.StatePending
	case "running", "started", "in_progress":
		return model.StateRunning
	case "succeeded", "success", "finished", "completed", "done":
		return model.StateSucceeded
	case "failed", "error", "failure":
		return model.StateFailed
	case "cancelled", "canceled", "aborted":
		return model.StateCancelled
	default:
		logger.Warnf("TaskQueueClient: Unknown job state '%s', treating it as RUNNING.", state)
		return model.StateRunning
	}
}

func normalizeItem(item wireItem) model.ItemResult {
	result := model.ItemResult{
		Key:     firstNonEmpty(item.Key, item.IP, item.Host),
		Message: firstNonEmpty(item.Message, item.Msg),
		Extra:   item.Extra,
	}

	switch {
	case item.Outcome != "":
		if strings.EqualFold(item.Outcome, "success") || strings.EqualFold(item.Outcome, "ok") {
			result.Outcome = model.OutcomeSuccess
		} else {
			result.Outcome = model.OutcomeError
		}
	case item.OK != nil:
		if *item.OK {
			result.Outcome = model.OutcomeSuccess
		} else {
			result.Outcome = model.OutcomeError
		}
	default:
		// No outcome field at all means the backend only reports failures
		// explicitly; the item counts as succeeded.
		result.Outcome = model.OutcomeSuccess
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
