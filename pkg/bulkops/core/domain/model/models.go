package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobState represents the backend-reported state of a single job.
type JobState string

const (
	StatePending   JobState = "PENDING"
	StateRunning   JobState = "RUNNING"
	StateSucceeded JobState = "SUCCEEDED"
	StateFailed    JobState = "FAILED"
	StateCancelled JobState = "CANCELLED"
)

// String returns the string representation of the JobState.
func (s JobState) String() string {
	return string(s)
}

// IsTerminal checks if the JobState represents a terminal state from which no
// further transition occurs.
func (s JobState) IsTerminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// Outcome represents the per-item result of a work item inside a job.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeError   Outcome = "ERROR"
)

// ItemResult is the result of a single work item inside one job.
// The Key is unique within a single job; aggregation across jobs concatenates
// without deduplication because member batches are disjoint.
type ItemResult struct {
	// Key identifies the work item, typically an IP address or hostname.
	Key string
	// Outcome is the per-item success or error classification. An item-level
	// error never escalates to fail the whole job.
	Outcome Outcome
	// Message carries a human-readable detail for the item.
	Message string
	// Extra holds opaque backend-provided attributes for the item.
	Extra map[string]interface{}
}

// JobStatus is an immutable snapshot of one job's state produced by a single
// poll. A fresh snapshot is created on every poll tick; snapshots are never
// mutated in place.
type JobStatus struct {
	JobID     string
	State     JobState
	Processed int
	Total     int
	Message   string
	// Items is the ordered sequence of per-item results reported so far.
	Items []ItemResult
}

// CompositeStatus is the merged view of multiple member jobs' statuses.
// Processed and Total are sums over members; Items is the concatenation of
// member item lists. The derived State follows the conservative rule: FAILED
// if any member failed, SUCCEEDED only if all members succeeded, RUNNING
// otherwise.
type CompositeStatus struct {
	State     JobState
	Processed int
	Total     int
	// Succeeded and Failed count per-item outcomes across all members, not
	// member jobs.
	Succeeded int
	Failed    int
	Items     []ItemResult
}

// HandleKind distinguishes a handle referencing a single job from one
// referencing a set of member jobs.
type HandleKind string

const (
	KindSingle    HandleKind = "single"
	KindComposite HandleKind = "composite"
)

// memberDelimiter separates member job ids inside a composite handle's JobID.
const memberDelimiter = ","

// JobHandle is the durable record of an in-flight bulk operation. It is
// written to persistent storage on creation and cleared on terminal-state
// acknowledgment or explicit reset, so that a restarted client can resume
// tracking the same backend jobs.
type JobHandle struct {
	// JobID is the job identifier; for composite handles it is the
	// comma-delimited list of member ids.
	JobID     string     `yaml:"job_id" json:"job_id"`
	Kind      HandleKind `yaml:"kind" json:"kind"`
	CreatedAt time.Time  `yaml:"created_at" json:"created_at"`
}

// NewSingleHandle creates a handle for one backend job.
func NewSingleHandle(jobID string) JobHandle {
	return JobHandle{
		JobID:     jobID,
		Kind:      KindSingle,
		CreatedAt: time.Now(),
	}
}

// NewCompositeHandle creates a handle for a set of member jobs produced by
// splitting one batch of work items.
func NewCompositeHandle(jobIDs []string) JobHandle {
	return JobHandle{
		JobID:     strings.Join(jobIDs, memberDelimiter),
		Kind:      KindComposite,
		CreatedAt: time.Now(),
	}
}

// MemberIDs returns the individual job ids referenced by this handle.
// A single handle yields exactly one id.
func (h JobHandle) MemberIDs() []string {
	if h.JobID == "" {
		return nil
	}
	if h.Kind != KindComposite {
		return []string{h.JobID}
	}
	parts := strings.Split(h.JobID, memberDelimiter)
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// IsZero reports whether the handle is empty (no job referenced).
func (h JobHandle) IsZero() bool {
	return h.JobID == ""
}

// Validate checks that the handle references at least one job and carries a
// known kind. A stored value failing validation is treated as absent by the
// handle store, never as a hard error.
func (h JobHandle) Validate() error {
	if h.JobID == "" {
		return fmt.Errorf("job handle has empty job id")
	}
	if h.Kind != KindSingle && h.Kind != KindComposite {
		return fmt.Errorf("job handle has unknown kind '%s'", h.Kind)
	}
	return nil
}

// WorkItem is one unit of work submitted to the backend as part of a batch,
// typically one device target.
type WorkItem struct {
	// Key identifies the work item, typically an IP address or hostname.
	Key string
	// Attributes holds the submission payload for the item (credentials
	// reference, role, location and similar domain fields are opaque here).
	Attributes map[string]interface{}
}

// LookupOption is a single entry of read-only reference data, used to resolve
// human-readable names to backend ids before job submission.
type LookupOption struct {
	ID   string
	Name string
}

// NewID generates a new UUID string.
func NewID() string {
	return uuid.New().String()
}
