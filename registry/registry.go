// Package registry is the process-wide table of bundled ("built-in")
// agents (spec §4.4). It is seeded lazily behind a sync.Once on first
// access and is read-only thereafter during normal operation, mirroring
// the teacher's lazy global-registry idiom.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ensemble-edge/conductor/core"
)

// Factory constructs a built-in Agent from its YAML-decoded config and the
// host's environment bindings.
type Factory func(config map[string]interface{}, env map[string]string) (core.Agent, error)

// Metadata describes a registered built-in for discovery purposes (spec §4.4).
type Metadata struct {
	Name          string
	Version       string
	Description   string
	Operation     core.Operation
	Tags          []string
	Examples      []string
	Documentation string
	Schemas       map[string]interface{}
}

type entry struct {
	metadata Metadata
	factory  Factory
	loaded   bool
}

var (
	mu      sync.RWMutex
	once    sync.Once
	entries map[string]*entry
)

func ensureSeeded() {
	once.Do(func() {
		entries = make(map[string]*entry)
		seedBuiltins()
	})
}

// register adds (or overwrites) an entry. Called during seeding and by
// code wishing to extend the built-in table at process-init time.
func register(metadata Metadata, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	entries[metadata.Name] = &entry{metadata: metadata, factory: factory, loaded: true}
}

// IsBuiltIn reports whether name is a registered built-in. Safe to call
// concurrently, even before any resolver call (spec §8 property 12).
func IsBuiltIn(name string) bool {
	ensureSeeded()
	mu.RLock()
	defer mu.RUnlock()
	_, ok := entries[name]
	return ok
}

// Create constructs the named built-in via its factory.
func Create(name string, config map[string]interface{}, env map[string]string) (core.Agent, error) {
	ensureSeeded()
	mu.RLock()
	e, ok := entries[name]
	mu.RUnlock()
	if !ok {
		return nil, core.AgentNotFound(name)
	}
	return e.factory(config, env)
}

// List returns metadata for every registered built-in, sorted by name.
func List() []Metadata {
	ensureSeeded()
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Metadata, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.metadata)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListByType returns metadata for every built-in whose Operation matches op.
func ListByType(op core.Operation) []Metadata {
	var out []Metadata
	for _, m := range List() {
		if m.Operation == op {
			out = append(out, m)
		}
	}
	return out
}

// ListByTag returns metadata for every built-in carrying tag.
func ListByTag(tag string) []Metadata {
	var out []Metadata
	for _, m := range List() {
		for _, t := range m.Tags {
			if t == tag {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// GetMetadata returns the named built-in's metadata.
func GetMetadata(name string) (Metadata, error) {
	ensureSeeded()
	mu.RLock()
	defer mu.RUnlock()
	e, ok := entries[name]
	if !ok {
		return Metadata{}, fmt.Errorf("registry: no built-in named %q", name)
	}
	return e.metadata, nil
}
