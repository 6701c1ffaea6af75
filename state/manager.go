// Package state implements the shared run state of spec §3/§4.3: a
// persistent (in the functional sense) keyed map with per-step declared
// use/set access control and an append-only access log. A Manager is
// logically immutable — every mutation yields a new Manager, and prior
// snapshots remain valid and unaffected.
package state

import (
	"fmt"
	"time"

	"github.com/ensemble-edge/conductor/corelog"
	"github.com/ensemble-edge/conductor/core"
	"github.com/ensemble-edge/conductor/ensemble"
)

// AccessOp identifies whether an AccessEntry records a read or a write.
type AccessOp string

const (
	AccessRead  AccessOp = "read"
	AccessWrite AccessOp = "write"
)

// AccessEntry is one row of the access log (spec §4.3).
type AccessEntry struct {
	Agent     string
	Key       string
	Operation AccessOp
	Timestamp time.Time
}

// PendingUpdates accumulates the writes and log entries produced while an
// agent runs, so they can be applied to the Manager as a single atomic
// snapshot transition once the agent completes.
type PendingUpdates struct {
	Updates map[string]interface{}
	Log     []AccessEntry
}

func newPending() *PendingUpdates {
	return &PendingUpdates{Updates: map[string]interface{}{}}
}

// Manager holds the frozen schema, frozen state mapping, and the
// append-only access log (spec §4.3).
type Manager struct {
	schema    map[string]interface{}
	state     map[string]interface{}
	accessLog []AccessEntry
}

// New constructs a Manager from an ensemble's declared state config.
func New(cfg *ensemble.StateConfig) *Manager {
	m := &Manager{state: map[string]interface{}{}}
	if cfg == nil {
		return m
	}
	m.schema = cfg.Schema
	m.state = cloneMap(cfg.Initial)
	return m
}

// Restore reconstructs a Manager from a previously captured snapshot and
// access log, for a host resuming a suspended run (spec §4.8 "Resume
// semantics") from durable storage. schema may be nil; it is carried for
// bookkeeping only and never enforced by the engine.
func Restore(schema map[string]interface{}, snapshot map[string]interface{}, log []AccessEntry) *Manager {
	return &Manager{schema: schema, state: cloneMap(snapshot), accessLog: append([]AccessEntry{}, log...)}
}

// State returns the current frozen state mapping. Callers must not mutate
// the returned map; treat it as read-only, matching the engine's own
// no-in-place-mutation discipline (spec §4.3).
func (m *Manager) State() map[string]interface{} {
	return m.state
}

// GetStateForAgent returns a read-only view restricted to access.Use, a
// setState sink restricted to access.Set, and the PendingUpdates buffer
// that both populate. Reads of present keys are logged immediately;
// writes to undeclared keys are dropped with a warning and never reach
// the buffer (spec §4.3, property (1), scenario (B)).
func (m *Manager) GetStateForAgent(agentName string, access ensemble.StepStateConfig, logger corelog.Logger) (core.StateView, core.SetStateFunc, *PendingUpdates) {
	log := corelog.Safe(logger)
	pending := newPending()

	view := make(core.StateView, len(access.Use))
	for _, key := range access.Use {
		if v, ok := m.state[key]; ok {
			view[key] = v
			pending.Log = append(pending.Log, AccessEntry{Agent: agentName, Key: key, Operation: AccessRead, Timestamp: time.Now()})
		}
	}

	allowedSet := toSet(access.Set)
	setState := core.SetStateFunc(func(updates map[string]interface{}) {
		for k, v := range updates {
			if !allowedSet[k] {
				log.Warn(fmt.Sprintf("state: agent %q attempted undeclared write to %q, dropped", agentName, k), nil)
				continue
			}
			pending.Updates[k] = v
			pending.Log = append(pending.Log, AccessEntry{Agent: agentName, Key: k, Operation: AccessWrite, Timestamp: time.Now()})
		}
	})

	return view, setState, pending
}

// SetStateFromMember is the direct-write variant used when the
// orchestrator receives updates through a side channel rather than a
// step's own AgentContext.SetState. Semantics are identical to the
// setState path of GetStateForAgent (spec §4.3).
func (m *Manager) SetStateFromMember(agentName string, updates map[string]interface{}, access ensemble.StepStateConfig, logger corelog.Logger) *PendingUpdates {
	log := corelog.Safe(logger)
	pending := newPending()
	allowedSet := toSet(access.Set)
	for k, v := range updates {
		if !allowedSet[k] {
			log.Warn(fmt.Sprintf("state: agent %q attempted undeclared write to %q, dropped", agentName, k), nil)
			continue
		}
		pending.Updates[k] = v
		pending.Log = append(pending.Log, AccessEntry{Agent: agentName, Key: k, Operation: AccessWrite, Timestamp: time.Now()})
	}
	return pending
}

// ApplyPendingUpdates produces a new Manager with pending's writes merged
// into state (latest wins) and its log entries appended. When pending
// carries no updates and no log entries, the receiver is returned
// unchanged — identity preservation as an optimization (spec §4.3).
func (m *Manager) ApplyPendingUpdates(pending *PendingUpdates) *Manager {
	if pending == nil || (len(pending.Updates) == 0 && len(pending.Log) == 0) {
		return m
	}

	newState := make(map[string]interface{}, len(m.state)+len(pending.Updates))
	for k, v := range m.state {
		newState[k] = v
	}
	for k, v := range pending.Updates {
		newState[k] = v
	}

	newLog := make([]AccessEntry, len(m.accessLog), len(m.accessLog)+len(pending.Log))
	copy(newLog, m.accessLog)
	newLog = append(newLog, pending.Log...)

	return &Manager{schema: m.schema, state: newState, accessLog: newLog}
}

// AccessReport summarizes a run's access log: which declared state keys
// were never touched, and the per-agent log entries (spec §4.3).
type AccessReport struct {
	UnusedKeys     []string
	AccessPatterns map[string][]AccessEntry
}

// GetAccessReport returns the keys present in state that no entry in the
// access log ever touched, plus the log grouped by agent.
func (m *Manager) GetAccessReport() AccessReport {
	touched := make(map[string]bool, len(m.accessLog))
	patterns := make(map[string][]AccessEntry)
	for _, entry := range m.accessLog {
		touched[entry.Key] = true
		patterns[entry.Agent] = append(patterns[entry.Agent], entry)
	}

	var unused []string
	for k := range m.state {
		if !touched[k] {
			unused = append(unused, k)
		}
	}

	return AccessReport{UnusedKeys: unused, AccessPatterns: patterns}
}

// Log returns a copy of the raw, causally-ordered access log.
func (m *Manager) Log() []AccessEntry {
	out := make([]AccessEntry, len(m.accessLog))
	copy(out, m.accessLog)
	return out
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, item := range items {
		s[item] = true
	}
	return s
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
