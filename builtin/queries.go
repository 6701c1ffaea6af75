package builtin

import (
	"time"

	"github.com/ensemble-edge/conductor/core"
)

// Queries runs a flat equality filter over rows carried in its own step
// config, a minimal stand-in for a real query engine (spec §1 leaves
// database-specific agents out of core scope).
type Queries struct {
	name string
	rows []map[string]interface{}
}

// NewQueries constructs the `queries` built-in. config.rows is a list of
// row mappings.
func NewQueries(config map[string]interface{}, env map[string]string) (core.Agent, error) {
	var rows []map[string]interface{}
	if raw, ok := config["rows"].([]interface{}); ok {
		for _, item := range raw {
			if m, ok := item.(map[string]interface{}); ok {
				rows = append(rows, m)
			}
		}
	}
	return &Queries{name: "queries", rows: rows}, nil
}

func (q *Queries) Name() string         { return q.name }
func (q *Queries) Type() core.Operation { return core.OpQueries }

func (q *Queries) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	filter, _ := ctx.Input.(map[string]interface{})

	var matched []map[string]interface{}
	for _, row := range q.rows {
		if rowMatches(row, filter) {
			matched = append(matched, row)
		}
	}

	return core.AgentResponse{
		Success:       true,
		Data:          map[string]interface{}{"rows": matched, "count": len(matched)},
		ExecutionTime: time.Since(start),
		Timestamp:     time.Now(),
		Metadata:      core.AgentResponseMetadata{Agent: q.name, Type: core.OpQueries},
	}, nil
}

func rowMatches(row, filter map[string]interface{}) bool {
	for k, want := range filter {
		if row[k] != want {
			return false
		}
	}
	return true
}
