package strategy

import "FlowSentinel/internal/model"

// Reason explains a notification decision.
type Reason string

const (
	ReasonDisabled       Reason = "disabled"
	ReasonNoThreshold    Reason = "no_threshold"
	ReasonFirstRun       Reason = "first_run"
	ReasonThreshold      Reason = "threshold_reached"
	ReasonBelowThreshold Reason = "below_threshold"
)

// Decision is the outcome of evaluating a NotifyPolicy against a diff.
type Decision struct {
	Fire   bool
	Reason Reason
}

// Decide reports whether a notification must be sent. A missing baseline
// fires unconditionally once the policy is active; otherwise the general
// purpose incremental usage is compared with the threshold.
func Decide(diff model.DiffSet, policy model.NotifyPolicy, prev *model.Snapshot) Decision {
	if !policy.Enabled {
		return Decision{Reason: ReasonDisabled}
	}
	if policy.ThresholdMB <= 0 {
		return Decision{Reason: ReasonNoThreshold}
	}
	if prev == nil {
		return Decision{Fire: true, Reason: ReasonFirstRun}
	}
	if diff[model.AllCommon].IncrementalMB >= policy.ThresholdMB {
		return Decision{Fire: true, Reason: ReasonThreshold}
	}
	return Decision{Reason: ReasonBelowThreshold}
}

// ResetIncremental returns a copy of snap with every incremental counter
// zeroed and every today counter kept. Apply it only after a confirmed
// delivery, before persisting the snapshot as the new baseline.
func ResetIncremental(snap *model.Snapshot) *model.Snapshot {
	out := snap.Clone()
	if out == nil {
		return nil
	}
	for k, e := range out.Diff {
		e.IncrementalMB = 0
		out.Diff[k] = e
	}
	return out
}
