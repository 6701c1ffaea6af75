package registry

import (
	"github.com/ensemble-edge/conductor/builtin"
	"github.com/ensemble-edge/conductor/core"
)

// seedBuiltins populates the registry with the bundled agents named in
// spec §4.4: scrape, validate, rag, hitl, fetch, tools, queries.
func seedBuiltins() {
	register(Metadata{
		Name:        "scrape",
		Version:     "1.0.0",
		Description: "fetches a URL and returns markup-stripped plain text",
		Operation:   core.OpScrape,
		Tags:        []string{"http", "text"},
	}, func(config map[string]interface{}, env map[string]string) (core.Agent, error) {
		return builtin.NewScrape(config, env)
	})

	register(Metadata{
		Name:        "validate",
		Version:     "1.0.0",
		Description: "checks a value mapping against declared per-field rules",
		Operation:   core.OpValidate,
		Tags:        []string{"data"},
	}, func(config map[string]interface{}, env map[string]string) (core.Agent, error) {
		return builtin.NewValidate(config, env)
	})

	register(Metadata{
		Name:        "rag",
		Version:     "1.0.0",
		Description: "retrieves the closest-matching passages from a configured corpus",
		Operation:   core.OpRAG,
		Tags:        []string{"retrieval"},
	}, func(config map[string]interface{}, env map[string]string) (core.Agent, error) {
		return builtin.NewRAG(config, env)
	})

	register(Metadata{
		Name:        "hitl",
		Version:     "1.0.0",
		Description: "suspends the run until an external approval decision arrives",
		Operation:   core.OpHITL,
		Tags:        []string{"human"},
	}, func(config map[string]interface{}, env map[string]string) (core.Agent, error) {
		return builtin.NewHITL(config, env)
	})

	register(Metadata{
		Name:        "fetch",
		Version:     "1.0.0",
		Description: "performs an HTTP GET and returns the raw response body",
		Operation:   core.OpFetch,
		Tags:        []string{"http"},
	}, func(config map[string]interface{}, env map[string]string) (core.Agent, error) {
		return builtin.NewFetch(config, env)
	})

	register(Metadata{
		Name:        "tools",
		Version:     "1.0.0",
		Description: "dispatches to a small table of named pure helper functions",
		Operation:   core.OpTools,
		Tags:        []string{"utility"},
	}, func(config map[string]interface{}, env map[string]string) (core.Agent, error) {
		return builtin.NewTools(config, env)
	})

	register(Metadata{
		Name:        "queries",
		Version:     "1.0.0",
		Description: "runs a flat equality filter over configured rows",
		Operation:   core.OpQueries,
		Tags:        []string{"data"},
	}, func(config map[string]interface{}, env map[string]string) (core.Agent, error) {
		return builtin.NewQueries(config, env)
	})
}
