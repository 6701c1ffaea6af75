package builtin

import (
	"fmt"
	"time"

	"github.com/ensemble-edge/conductor/core"
)

// Validate checks the input mapping's fields against per-field rules declared in
// the step's config (type, required). It never errors on its own account;
// a failed validation is a successful Execute carrying Success=false and
// the list of violations in Data, so the scoring/onFailure machinery can
// evaluate it like any other agent output.
type Validate struct {
	name  string
	rules map[string]interface{}
}

// NewValidate constructs the `validate` built-in. config.rules maps field
// name to a rule mapping: {type: "string"|"number"|"bool", required: bool}.
func NewValidate(config map[string]interface{}, env map[string]string) (core.Agent, error) {
	rules, _ := config["rules"].(map[string]interface{})
	return &Validate{name: "validate", rules: rules}, nil
}

func (v *Validate) Name() string         { return v.name }
func (v *Validate) Type() core.Operation { return core.OpValidate }

func (v *Validate) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	value, _ := ctx.Input.(map[string]interface{})

	var violations []string
	for field, raw := range v.rules {
		rule, _ := raw.(map[string]interface{})
		required, _ := rule["required"].(bool)
		wantType, _ := rule["type"].(string)

		fv, present := value[field]
		if !present {
			if required {
				violations = append(violations, fmt.Sprintf("%s: required field missing", field))
			}
			continue
		}
		if wantType != "" && !matchesType(fv, wantType) {
			violations = append(violations, fmt.Sprintf("%s: expected type %s", field, wantType))
		}
	}

	return core.AgentResponse{
		Success:       len(violations) == 0,
		Data:          map[string]interface{}{"valid": len(violations) == 0, "violations": violations},
		ExecutionTime: time.Since(start),
		Timestamp:     time.Now(),
		Metadata:      core.AgentResponseMetadata{Agent: v.name, Type: core.OpValidate},
	}, nil
}

func matchesType(v interface{}, want string) bool {
	switch want {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case int, int64, float64:
			return true
		default:
			return false
		}
	case "bool":
		_, ok := v.(bool)
		return ok
	default:
		return true
	}
}
