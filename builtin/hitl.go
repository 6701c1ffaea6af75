package builtin

import (
	"time"

	"github.com/ensemble-edge/conductor/core"
)

// HITL (human-in-the-loop) checks its input for an `approved` decision.
// Absent one, Execute returns core.ErrSuspended so the orchestrator can
// suspend the run rather than treat the step as failed (spec §8 scenario H).
type HITL struct {
	name string
}

// NewHITL constructs the `hitl` built-in.
func NewHITL(config map[string]interface{}, env map[string]string) (core.Agent, error) {
	return &HITL{name: "hitl"}, nil
}

func (h *HITL) Name() string         { return h.name }
func (h *HITL) Type() core.Operation { return core.OpHITL }

func (h *HITL) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	m, _ := ctx.Input.(map[string]interface{})

	approved, present := m["approved"]
	if !present || approved == nil {
		return core.AgentResponse{Success: false, Error: core.ErrSuspended.Error()}, core.ErrSuspended
	}

	ok, _ := approved.(bool)
	return core.AgentResponse{
		Success:       ok,
		Data:          map[string]interface{}{"approved": ok},
		ExecutionTime: time.Since(start),
		Timestamp:     time.Now(),
		Metadata:      core.AgentResponseMetadata{Agent: h.name, Type: core.OpHITL},
	}, nil
}
