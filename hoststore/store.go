// Package hoststore is optional host-side durable storage for suspended
// runs (spec §4.8 "Resume semantics": "the snapshot must be provided by
// the host; the engine has no durable storage of its own"). Nothing in
// orchestrator, state, or scoring imports this package — a host wires it
// in only if it wants persistence across process restarts.
package hoststore

import (
	"context"
	"time"

	"github.com/ensemble-edge/conductor/orchestrator"
	"github.com/ensemble-edge/conductor/scoring"
	"github.com/ensemble-edge/conductor/state"
)

// SuspendedRecord is the JSON-serializable projection of
// orchestrator.SuspendedState, since state.Manager carries unexported
// fields and cannot be marshaled directly.
type SuspendedRecord struct {
	ExecutionID      string                 `json:"executionId"`
	EnsembleName     string                 `json:"ensembleName"`
	ResumeFromStep   int                    `json:"resumeFromStep"`
	ExecutionContext map[string]interface{} `json:"executionContext"`
	StateSnapshot    map[string]interface{} `json:"stateSnapshot"`
	StateLog         []state.AccessEntry    `json:"stateLog"`
	ScoringState     *scoring.State         `json:"scoringState,omitempty"`
	Metrics          orchestrator.Metrics   `json:"metrics"`
	StartTime        time.Time              `json:"startTime"`
}

// ToRecord projects a live SuspendedState into its serializable form.
func ToRecord(s orchestrator.SuspendedState) SuspendedRecord {
	rec := SuspendedRecord{
		ExecutionID:      s.ExecutionID,
		EnsembleName:     s.EnsembleName,
		ResumeFromStep:   s.ResumeFromStep,
		ExecutionContext: s.ExecutionContext,
		ScoringState:     s.ScoringState,
		Metrics:          s.Metrics,
		StartTime:        s.StartTime,
	}
	if s.StateManager != nil {
		rec.StateSnapshot = s.StateManager.State()
		rec.StateLog = s.StateManager.Log()
	}
	return rec
}

// ToSuspendedState reconstitutes a live SuspendedState from a record,
// rebuilding the StateManager via state.Restore.
func (r SuspendedRecord) ToSuspendedState() orchestrator.SuspendedState {
	return orchestrator.SuspendedState{
		EnsembleName:     r.EnsembleName,
		ExecutionID:      r.ExecutionID,
		ResumeFromStep:   r.ResumeFromStep,
		ExecutionContext: r.ExecutionContext,
		StateManager:     state.Restore(nil, r.StateSnapshot, r.StateLog),
		ScoringState:     r.ScoringState,
		Metrics:          r.Metrics,
		StartTime:        r.StartTime,
	}
}

// SuspendedRunStore persists suspended-run records keyed by execution ID,
// so a HITL or async-wait suspension can survive a process restart.
type SuspendedRunStore interface {
	Save(ctx context.Context, record SuspendedRecord) error
	Get(ctx context.Context, executionID string) (SuspendedRecord, error)
	Delete(ctx context.Context, executionID string) error
}
