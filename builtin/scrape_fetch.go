// Package builtin implements the seven bundled agents named in spec §4.4:
// scrape, validate, rag, hitl, fetch, tools, queries. Each is a real,
// self-contained reference implementation rather than a stub — fetch and
// scrape perform actual HTTP calls through a traced client, the others
// operate on data carried in their own step config, matching the engine's
// stance that individual agent implementations beyond these seven bundled
// examples are out of scope (spec §1).
package builtin

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ensemble-edge/conductor/core"
	"github.com/ensemble-edge/conductor/telemetry"
)

var httpClient = telemetry.NewTracedHTTPClient(&http.Client{Timeout: 15 * time.Second})

// Fetch performs an HTTP GET and returns the raw response body.
type Fetch struct {
	name string
}

// NewFetch constructs the `fetch` built-in.
func NewFetch(config map[string]interface{}, env map[string]string) (core.Agent, error) {
	return &Fetch{name: "fetch"}, nil
}

func (f *Fetch) Name() string         { return f.name }
func (f *Fetch) Type() core.Operation { return core.OpFetch }

func (f *Fetch) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	url, err := stringField(ctx.Input, "url")
	if err != nil {
		return core.AgentResponse{Success: false, Error: err.Error()}, err
	}

	req, err := http.NewRequestWithContext(ctx.RuntimeCtx, http.MethodGet, url, nil)
	if err != nil {
		return core.AgentResponse{Success: false, Error: err.Error()}, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return core.AgentResponse{Success: false, Error: err.Error()}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.AgentResponse{Success: false, Error: err.Error()}, err
	}

	return core.AgentResponse{
		Success:       resp.StatusCode < 400,
		Data:          map[string]interface{}{"status": resp.StatusCode, "body": string(body)},
		ExecutionTime: time.Since(start),
		Timestamp:     time.Now(),
		Metadata:      core.AgentResponseMetadata{Agent: f.name, Type: core.OpFetch},
	}, nil
}

var tagPattern = regexp.MustCompile(`(?s)<[^>]*>`)

// Scrape fetches a page and strips markup, leaving plain text.
type Scrape struct {
	name string
}

// NewScrape constructs the `scrape` built-in.
func NewScrape(config map[string]interface{}, env map[string]string) (core.Agent, error) {
	return &Scrape{name: "scrape"}, nil
}

func (s *Scrape) Name() string         { return s.name }
func (s *Scrape) Type() core.Operation { return core.OpScrape }

func (s *Scrape) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	url, err := stringField(ctx.Input, "url")
	if err != nil {
		return core.AgentResponse{Success: false, Error: err.Error()}, err
	}

	req, err := http.NewRequestWithContext(ctx.RuntimeCtx, http.MethodGet, url, nil)
	if err != nil {
		return core.AgentResponse{Success: false, Error: err.Error()}, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return core.AgentResponse{Success: false, Error: err.Error()}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.AgentResponse{Success: false, Error: err.Error()}, err
	}

	text := strings.TrimSpace(tagPattern.ReplaceAllString(string(body), " "))
	text = strings.Join(strings.Fields(text), " ")

	return core.AgentResponse{
		Success:       resp.StatusCode < 400,
		Data:          map[string]interface{}{"status": resp.StatusCode, "text": text},
		ExecutionTime: time.Since(start),
		Timestamp:     time.Now(),
		Metadata:      core.AgentResponseMetadata{Agent: s.name, Type: core.OpScrape},
	}, nil
}

func stringField(input interface{}, key string) (string, error) {
	m, ok := input.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("%s: input must be a mapping with a %q field", key, key)
	}
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%s: missing required field %q", key, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: field %q must be a string", key, key)
	}
	return s, nil
}
