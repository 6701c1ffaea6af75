package agent

import (
	"sync"

	"github.com/ensemble-edge/conductor/core"
	"github.com/ensemble-edge/conductor/ensemble"
	"github.com/ensemble-edge/conductor/registry"
)

// Resolver implements the algorithm of spec §4.5: given a reference
// `name` or `name@version`, it returns an Agent, drawing first from the
// built-in registry, then from the user-registered map.
type Resolver struct {
	mu     sync.RWMutex
	users  map[string]core.Agent
	env    map[string]string
	deps   Dependencies
}

// NewResolver constructs a Resolver. env is passed through to built-in
// factories that need host bindings; deps feeds the operation-typed
// constructors used for inline agent configs.
func NewResolver(env map[string]string, deps Dependencies) *Resolver {
	return &Resolver{users: make(map[string]core.Agent), env: env, deps: deps}
}

// RegisterAgent adds a user agent under ref (a bare name or name@version).
func (r *Resolver) RegisterAgent(ref string, a core.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[ref] = a
}

// AvailableNames returns every agent name known to the resolver: the
// built-in names plus the name part of every user registration, bare or
// versioned. Versions are stripped, matching how
// ensemble.ValidateReferences compares flow references.
func (r *Resolver) AvailableNames() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]bool, len(r.users))
	for ref := range r.users {
		if name, _, err := ensemble.ParseAgentReference(ref); err == nil {
			out[name] = true
		}
	}
	for _, m := range registry.List() {
		out[m.Name] = true
	}
	return out
}

// Resolve implements spec §4.5's resolution algorithm with an empty
// built-in config. Most callers driving a flow step should use
// ResolveForStep so built-ins are constructed with the step's own input
// as configuration.
func (r *Resolver) Resolve(ref string) (core.Agent, error) {
	return r.ResolveForStep(ref, map[string]interface{}{})
}

// ResolveForStep implements spec §4.5's resolution algorithm, threading
// config (typically a flow step's Input) into built-in construction so
// config-bearing built-ins (validate's rules, rag's corpus, ...) see it.
func (r *Resolver) ResolveForStep(ref string, config map[string]interface{}) (core.Agent, error) {
	name, version, err := ensemble.ParseAgentReference(ref)
	if err != nil {
		return nil, core.AgentConfig(ref, err.Error())
	}

	if version == "" {
		if registry.IsBuiltIn(name) {
			return registry.Create(name, config, r.env)
		}
		r.mu.RLock()
		a, ok := r.users[name]
		r.mu.RUnlock()
		if ok {
			return a, nil
		}
		return nil, core.AgentNotFound(name)
	}

	composite := name + "@" + version
	r.mu.RLock()
	a, ok := r.users[composite]
	r.mu.RUnlock()
	if ok {
		return a, nil
	}

	r.mu.RLock()
	bare, ok := r.users[name]
	r.mu.RUnlock()
	if ok {
		r.mu.Lock()
		r.users[composite] = bare
		r.mu.Unlock()
		return bare, nil
	}

	return nil, core.AgentConfig(ref, "versioned agent loading requires external package index; register via RegisterAgent()")
}
