package ensemble

import (
	"github.com/ensemble-edge/conductor/core"
	"gopkg.in/yaml.v3"
)

// Parse decodes, validates and returns a fully-formed Ensemble, or a
// *core.Error with Kind core.KindEnsembleParse describing every problem
// found. Parse never returns a partially valid Ensemble: any failure
// means a nil *Ensemble (spec §4.2).
func Parse(yamlBytes []byte) (*Ensemble, error) {
	var e Ensemble
	if err := yaml.Unmarshal(yamlBytes, &e); err != nil {
		return nil, core.Wrap(core.KindEnsembleParse, "invalid ensemble yaml", err)
	}

	report := validate(&e)
	if !report.OK() {
		return nil, core.New(core.KindEnsembleParse, report.Summary()).WithEnsemble(e.Name, "")
	}

	return &e, nil
}

// ValidateReferences checks e's flow steps against the set of agent names
// known to the caller's registry, returning a *core.Error describing every
// unresolved reference. Separate from Parse because the set of available
// agents (built-ins plus user-registered) is only known once a registry
// has been constructed.
func ValidateReferences(e *Ensemble, availableNames map[string]bool) error {
	report := validateAgentReferences(e, availableNames)
	if !report.OK() {
		return core.New(core.KindEnsembleParse, report.Summary()).WithEnsemble(e.Name, "")
	}
	return nil
}
