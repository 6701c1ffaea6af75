package builtin

import (
	"fmt"
	"strings"
	"time"

	"github.com/ensemble-edge/conductor/core"
)

type toolFunc func(args map[string]interface{}) (interface{}, error)

var toolTable = map[string]toolFunc{
	"uppercase": func(args map[string]interface{}) (interface{}, error) {
		s, ok := args["text"].(string)
		if !ok {
			return nil, fmt.Errorf("uppercase: missing text")
		}
		return strings.ToUpper(s), nil
	},
	"lowercase": func(args map[string]interface{}) (interface{}, error) {
		s, ok := args["text"].(string)
		if !ok {
			return nil, fmt.Errorf("lowercase: missing text")
		}
		return strings.ToLower(s), nil
	},
	"concat": func(args map[string]interface{}) (interface{}, error) {
		parts, ok := args["parts"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("concat: missing parts")
		}
		var b strings.Builder
		for _, p := range parts {
			fmt.Fprintf(&b, "%v", p)
		}
		return b.String(), nil
	},
}

// Tools dispatches to a small table of named, pure helper functions
// (spec §4.4 names this a bundled agent, leaving real tool-calling
// backends to user-registered agents).
type Tools struct {
	name string
}

// NewTools constructs the `tools` built-in.
func NewTools(config map[string]interface{}, env map[string]string) (core.Agent, error) {
	return &Tools{name: "tools"}, nil
}

func (t *Tools) Name() string         { return t.name }
func (t *Tools) Type() core.Operation { return core.OpTools }

func (t *Tools) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	m, ok := ctx.Input.(map[string]interface{})
	if !ok {
		err := fmt.Errorf("tools: input must be a mapping with a %q field", "tool")
		return core.AgentResponse{Success: false, Error: err.Error()}, err
	}

	name, _ := m["tool"].(string)
	fn, ok := toolTable[name]
	if !ok {
		err := fmt.Errorf("tools: unknown tool %q", name)
		return core.AgentResponse{Success: false, Error: err.Error()}, err
	}

	args, _ := m["args"].(map[string]interface{})
	result, err := fn(args)
	if err != nil {
		return core.AgentResponse{Success: false, Error: err.Error()}, err
	}

	return core.AgentResponse{
		Success:       true,
		Data:          map[string]interface{}{"result": result},
		ExecutionTime: time.Since(start),
		Timestamp:     time.Now(),
		Metadata:      core.AgentResponseMetadata{Agent: t.name, Type: core.OpTools},
	}, nil
}
