package builtin

import (
	"sort"
	"strings"
	"time"

	"github.com/ensemble-edge/conductor/core"
)

// RAG retrieves the passages from its configured corpus in which the
// query's terms occur most often (case-insensitive substring counts, so
// "fox" also counts inside "foxes"), a minimal self-contained substitute for a
// vector-store retriever (spec §1 keeps real retrieval backends out of
// core scope; hosts wire one in by registering a user agent instead).
type RAG struct {
	name   string
	corpus []string
}

// NewRAG constructs the `rag` built-in. config.corpus is a list of passages.
func NewRAG(config map[string]interface{}, env map[string]string) (core.Agent, error) {
	var corpus []string
	if raw, ok := config["corpus"].([]interface{}); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				corpus = append(corpus, s)
			}
		}
	}
	return &RAG{name: "rag", corpus: corpus}, nil
}

func (r *RAG) Name() string         { return r.name }
func (r *RAG) Type() core.Operation { return core.OpRAG }

func (r *RAG) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	query, err := stringField(ctx.Input, "query")
	if err != nil {
		return core.AgentResponse{Success: false, Error: err.Error()}, err
	}
	topK := 3
	if m, ok := ctx.Input.(map[string]interface{}); ok {
		if k, ok := m["topK"].(int); ok && k > 0 {
			topK = k
		}
	}

	type scored struct {
		passage string
		score   int
	}
	terms := strings.Fields(strings.ToLower(query))
	var results []scored
	for _, passage := range r.corpus {
		lower := strings.ToLower(passage)
		score := 0
		for _, term := range terms {
			score += strings.Count(lower, term)
		}
		if score > 0 {
			results = append(results, scored{passage: passage, score: score})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > topK {
		results = results[:topK]
	}

	passages := make([]string, len(results))
	for i, res := range results {
		passages[i] = res.passage
	}

	return core.AgentResponse{
		Success:       true,
		Data:          map[string]interface{}{"passages": passages},
		ExecutionTime: time.Since(start),
		Timestamp:     time.Now(),
		Metadata:      core.AgentResponseMetadata{Agent: r.name, Type: core.OpRAG},
	}, nil
}
