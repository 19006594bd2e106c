// Package wizard implements the three-phase flow that guides an operator
// from target collection through configuration to review and execution.
package wizard

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

// Phase identifies one step of the flow.
type Phase int

const (
	// PhaseTargets collects the scan targets (networks, credentials).
	PhaseTargets Phase = iota + 1
	// PhaseConfigure assigns onboarding attributes to the discovered devices.
	PhaseConfigure
	// PhaseReview shows live execution progress. Entering it submits the
	// onboarding jobs as a side effect of the transition itself, so the
	// review phase always reflects a running operation rather than a stale
	// trigger button.
	PhaseReview
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseTargets:
		return "targets"
	case PhaseConfigure:
		return "configure"
	case PhaseReview:
		return "review"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// Validator decides whether the data entered in a phase is sufficient to
// advance. A nil return means valid; any error is the reason shown to the
// operator. Concrete rules belong to the caller, not to the machine.
type Validator func(data map[string]interface{}) error

// ValidationError reports a refused Advance. The machine stays in its
// current phase; nothing is advanced silently on invalid data.
type ValidationError struct {
	Phase  Phase
	Reason error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("phase '%s' validation failed: %v", e.Phase, e.Reason)
}

// Unwrap returns the underlying validation reason.
func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// SubmitWarning marks a submission that degraded but did not fail outright:
// part of the work is already running, so the review phase has an operation
// to track and retrying the whole submission is no longer possible. Advance
// enters PhaseReview anyway and returns the warning for display.
type SubmitWarning struct {
	Err error
}

// Error implements the error interface.
func (w *SubmitWarning) Error() string {
	return fmt.Sprintf("submission completed with warning: %v", w.Err)
}

// Unwrap returns the underlying submission problem.
func (w *SubmitWarning) Unwrap() error {
	return w.Err
}

// Hooks are the side effects the machine triggers on specific transitions.
type Hooks struct {
	// Submit is invoked when the machine enters PhaseReview, with the merged
	// data of all phases. A submission error keeps the machine in
	// PhaseConfigure so the operator can correct and retry, unless the error
	// wraps a *SubmitWarning, in which case the transition completes and the
	// warning is returned to the caller.
	Submit func(ctx context.Context, data map[string]interface{}) error

	// InvalidateScan is invoked when the machine re-enters PhaseTargets
	// after a scan has produced results. A new scan supersedes prior
	// discovery results, so the tracked handle must be released.
	InvalidateScan func(ctx context.Context) error
}

// Machine is the wizard state machine. It is not safe for concurrent use;
// one machine belongs to one operator session.
type Machine struct {
	phase         Phase
	data          map[Phase]map[string]interface{}
	validators    map[Phase]Validator
	hooks         Hooks
	scanCompleted bool
}

// NewMachine creates a machine positioned at PhaseTargets with no data.
func NewMachine(validators map[Phase]Validator, hooks Hooks) *Machine {
	return &Machine{
		phase: PhaseTargets,
		data: map[Phase]map[string]interface{}{
			PhaseTargets:   {},
			PhaseConfigure: {},
			PhaseReview:    {},
		},
		validators: validators,
		hooks:      hooks,
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// SetData merges values into the current phase's data.
func (m *Machine) SetData(values map[string]interface{}) {
	for k, v := range values {
		m.data[m.phase][k] = v
	}
}

// Data returns the data entered in the given phase. Data survives phase
// transitions in both directions, so an operator can retreat, adjust one
// value and advance again without re-entering the rest.
func (m *Machine) Data(phase Phase) map[string]interface{} {
	return m.data[phase]
}

// MarkScanCompleted records that the discovery scan of the current session
// has produced results. From now on, retreating into PhaseTargets
// invalidates the in-progress handle.
func (m *Machine) MarkScanCompleted() {
	m.scanCompleted = true
}

// Advance validates the current phase's data and, on success, moves to the
// next phase. Entering PhaseReview additionally submits the onboarding jobs;
// a submission failure rolls the transition back to PhaseConfigure. A
// *SubmitWarning from the hook means part of the operation is already running
// and a full retry would collide with it, so the machine enters PhaseReview
// and the warning is passed through.
//
// On validation failure Advance is a no-op: the machine stays put and the
// returned *ValidationError carries the reason.
func (m *Machine) Advance(ctx context.Context) error {
	if m.phase == PhaseReview {
		return fmt.Errorf("wizard is already in its final phase")
	}

	if v, ok := m.validators[m.phase]; ok && v != nil {
		if err := v(m.data[m.phase]); err != nil {
			logger.Debugf("Wizard: Advance from phase '%s' refused: %v", m.phase, err)
			return &ValidationError{Phase: m.phase, Reason: err}
		}
	}

	next := m.phase + 1
	if next == PhaseReview && m.hooks.Submit != nil {
		if err := m.hooks.Submit(ctx, m.mergedData()); err != nil {
			var warn *SubmitWarning
			if !errors.As(err, &warn) {
				logger.Errorf("Wizard: Submission on entering phase '%s' failed: %v", next, err)
				return err
			}
			logger.Warnf("Wizard: Entering phase '%s' with a degraded submission: %v", next, warn.Err)
			m.phase = next
			return err
		}
	}

	logger.Infof("Wizard: Advancing from phase '%s' to phase '%s'.", m.phase, next)
	m.phase = next
	return nil
}

// Retreat moves one phase back without validating. Data entered in later
// phases is preserved. Re-entering PhaseTargets after a completed scan
// invalidates the tracked handle via the InvalidateScan hook; the hook's
// error is returned but the retreat itself still happens, because going back
// must always succeed.
func (m *Machine) Retreat(ctx context.Context) error {
	if m.phase == PhaseTargets {
		return nil
	}

	prev := m.phase - 1
	logger.Infof("Wizard: Retreating from phase '%s' to phase '%s'.", m.phase, prev)
	m.phase = prev

	if prev == PhaseTargets && m.scanCompleted {
		m.scanCompleted = false
		if m.hooks.InvalidateScan != nil {
			if err := m.hooks.InvalidateScan(ctx); err != nil {
				logger.Warnf("Wizard: Invalidating the prior scan failed: %v", err)
				return err
			}
		}
	}
	return nil
}

// mergedData flattens the per-phase data maps into one map, later phases
// overriding earlier ones on key collisions.
func (m *Machine) mergedData() map[string]interface{} {
	merged := make(map[string]interface{})
	for _, phase := range []Phase{PhaseTargets, PhaseConfigure, PhaseReview} {
		for k, v := range m.data[phase] {
			merged[k] = v
		}
	}
	return merged
}
