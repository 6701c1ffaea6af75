// Package orchestrator implements the flow-walking executor of spec §4.8:
// it resolves each step's agent, threads shared state and scoring through
// the run, accounts per-agent metrics, and fires lifecycle notifications.
package orchestrator

import (
	"time"

	"github.com/ensemble-edge/conductor/scoring"
	"github.com/ensemble-edge/conductor/state"
)

// AgentMetric is one row of Metrics.Agents (spec §4.8 step e).
type AgentMetric struct {
	Name     string
	Duration time.Duration
	Cached   bool
	Success  bool
}

// Metrics accumulates the per-run bookkeeping of spec §4.8.
type Metrics struct {
	Ensemble      string
	TotalDuration time.Duration
	Agents        []AgentMetric
	CacheHits     int
}

// ExecutionResult is executeEnsemble/executeFlow's return value (spec §4.8).
type ExecutionResult struct {
	Output      interface{}
	Metrics     Metrics
	StateReport *state.AccessReport
	Scoring     *scoring.State
}

// SuspendedState is the snapshot a host must persist when a run suspends
// (spec §4.8 "Resume semantics") and hand back unchanged to Resume. The
// engine never stores this itself — see the hoststore package for an
// optional Redis-backed implementation a host may use.
type SuspendedState struct {
	EnsembleName     string
	ExecutionID      string
	ResumeFromStep   int
	ExecutionContext map[string]interface{}
	StateManager     *state.Manager
	ScoringState     *scoring.State
	Metrics          Metrics
	StartTime        time.Time
}
