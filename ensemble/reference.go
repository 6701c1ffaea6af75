package ensemble

import (
	"fmt"
	"regexp"
	"strings"
)

// agentRefPattern matches "name" or "name@version" (spec §6).
var agentRefPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+(@[A-Za-z0-9._-]+)?$`)

// ParseAgentReference splits a flow step's agent reference into its name
// and an optional version tag, rejecting anything with more than one "@"
// or characters outside the allowed set.
func ParseAgentReference(ref string) (name, version string, err error) {
	if !agentRefPattern.MatchString(ref) {
		return "", "", fmt.Errorf("%q is not a valid agent reference", ref)
	}
	if i := strings.IndexByte(ref, '@'); i >= 0 {
		return ref[:i], ref[i+1:], nil
	}
	return ref, "", nil
}

// validateAgentReferences checks that every flow step's agent reference
// names an agent present in availableNames, reporting each miss by its
// flow path. A miss is reported with the referenced name verbatim so that
// a reviewer searching for "ghost" finds the offending reference.
func validateAgentReferences(e *Ensemble, availableNames map[string]bool) *Report {
	r := &Report{}
	for i, step := range e.Flow {
		name, _, err := ParseAgentReference(step.Agent)
		if err != nil {
			continue // already reported by validate()
		}
		if !availableNames[name] {
			r.add(fmt.Sprintf("flow[%d].agent", i), fmt.Sprintf("references unknown agent %q", name))
		}
	}
	return r
}
