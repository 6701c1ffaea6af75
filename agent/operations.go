// Package agent provides the operation-typed agent constructors (spec
// §4.5) and the reference resolver that sits in front of the built-in
// registry and a host's own registered agents. Individual providers
// behind each operation (an SMTP relay, a PDF renderer, a SQL dialect)
// are deliberately out of scope (spec §1); these constructors wrap a
// narrow capability interface instead of a concrete vendor SDK.
package agent

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ensemble-edge/conductor/core"
	"github.com/ensemble-edge/conductor/interpolate"
	"github.com/ensemble-edge/conductor/telemetry"
)

// Dependencies are the narrow capability interfaces the operation-typed
// constructors close over. A host wires in concrete implementations; the
// engine itself never imports a specific provider SDK (spec §1).
type Dependencies struct {
	Completer  core.Completer
	Store      core.KeyValueStore
	HTTPClient *http.Client
}

func (d Dependencies) httpClient() *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return telemetry.NewTracedHTTPClient(&http.Client{Timeout: 15 * time.Second})
}

func respond(name string, op core.Operation, start time.Time, success bool, data interface{}, errMsg string) core.AgentResponse {
	return core.AgentResponse{
		Success:       success,
		Data:          data,
		Error:         errMsg,
		ExecutionTime: time.Since(start),
		Timestamp:     time.Now(),
		Metadata:      core.AgentResponseMetadata{Agent: name, Type: op},
	}
}

// NewFromOperation dispatches on op, the mechanism used when resolving an
// inline agent config rather than a named reference (spec §4.5). Unknown
// operations return an AgentConfig error.
func NewFromOperation(name string, op core.Operation, config map[string]interface{}, deps Dependencies) (core.Agent, error) {
	switch op {
	case core.OpThink:
		return &Think{name: name, completer: deps.Completer}, nil
	case core.OpStorage:
		return &Data{name: name, store: deps.Store}, nil
	case core.OpHTTP:
		return &API{name: name, client: deps.httpClient()}, nil
	case core.OpEmail:
		return &Email{name: name}, nil
	case core.OpSMS:
		return &SMS{name: name}, nil
	case core.OpForm:
		return &Form{name: name}, nil
	case core.OpPage:
		return &Page{name: name}, nil
	case core.OpHTML:
		return &HTML{name: name}, nil
	case core.OpPDF:
		return &PDF{name: name}, nil
	case core.OpDocs:
		return &Docs{name: name}, nil
	case core.OpCode:
		return NewCode(name, config)
	default:
		return nil, core.AgentConfig(string(op), "unknown operation")
	}
}

// Think calls an injected Completer with the step's prompt (spec §4.5).
type Think struct {
	name      string
	completer core.Completer
}

func (t *Think) Name() string         { return t.name }
func (t *Think) Type() core.Operation { return core.OpThink }

func (t *Think) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	if t.completer == nil {
		err := fmt.Errorf("think: no Completer configured for this host")
		return respond(t.name, core.OpThink, start, false, nil, err.Error()), err
	}

	m, _ := ctx.Input.(map[string]interface{})
	prompt, _ := m["prompt"].(string)
	opts, _ := m["options"].(map[string]interface{})

	out, err := t.completer.Complete(ctx.RuntimeCtx, prompt, opts)
	if err != nil {
		return respond(t.name, core.OpThink, start, false, nil, err.Error()), err
	}
	return respond(t.name, core.OpThink, start, true, map[string]interface{}{"text": out}, ""), nil
}

// Data (operation `storage`) reads/writes through an injected KeyValueStore.
type Data struct {
	name  string
	store core.KeyValueStore
}

func (d *Data) Name() string         { return d.name }
func (d *Data) Type() core.Operation { return core.OpStorage }

func (d *Data) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	if d.store == nil {
		err := fmt.Errorf("storage: no KeyValueStore configured for this host")
		return respond(d.name, core.OpStorage, start, false, nil, err.Error()), err
	}

	m, _ := ctx.Input.(map[string]interface{})
	op, _ := m["op"].(string)
	key, _ := m["key"].(string)

	switch op {
	case "get":
		v, found, err := d.store.Get(ctx.RuntimeCtx, key)
		if err != nil {
			return respond(d.name, core.OpStorage, start, false, nil, err.Error()), err
		}
		return respond(d.name, core.OpStorage, start, true, map[string]interface{}{"value": v, "found": found}, ""), nil
	case "set":
		if err := d.store.Set(ctx.RuntimeCtx, key, m["value"]); err != nil {
			return respond(d.name, core.OpStorage, start, false, nil, err.Error()), err
		}
		return respond(d.name, core.OpStorage, start, true, map[string]interface{}{"stored": true}, ""), nil
	case "delete":
		if err := d.store.Delete(ctx.RuntimeCtx, key); err != nil {
			return respond(d.name, core.OpStorage, start, false, nil, err.Error()), err
		}
		return respond(d.name, core.OpStorage, start, true, map[string]interface{}{"deleted": true}, ""), nil
	default:
		err := fmt.Errorf("storage: unknown op %q, want get, set or delete", op)
		return respond(d.name, core.OpStorage, start, false, nil, err.Error()), err
	}
}

// API (operation `http`) issues a generic HTTP request described by input.
type API struct {
	name   string
	client *http.Client
}

func (a *API) Name() string         { return a.name }
func (a *API) Type() core.Operation { return core.OpHTTP }

func (a *API) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	m, _ := ctx.Input.(map[string]interface{})
	url, _ := m["url"].(string)
	method, _ := m["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx.RuntimeCtx, method, url, nil)
	if err != nil {
		return respond(a.name, core.OpHTTP, start, false, nil, err.Error()), err
	}
	if headers, ok := m["headers"].(map[string]interface{}); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return respond(a.name, core.OpHTTP, start, false, nil, err.Error()), err
	}
	defer resp.Body.Close()

	return respond(a.name, core.OpHTTP, start, resp.StatusCode < 400, map[string]interface{}{"status": resp.StatusCode}, ""), nil
}

// renderTemplate returns a step's "template" field as a string. It does no
// substitution of its own: any ${...} tokens in it were already resolved
// when the executor interpolated the step's input (the template engine
// itself is out of scope per spec §1).
func renderTemplate(input interface{}) string {
	m, _ := input.(map[string]interface{})
	tmpl, _ := m["template"].(string)
	return tmpl
}

// Email builds a message envelope. Actual delivery is a host concern
// (spec §1: SMTP/Resend wiring is out of scope); the notify package's
// own email target is the one place Conductor actually sends mail.
type Email struct{ name string }

func (e *Email) Name() string         { return e.name }
func (e *Email) Type() core.Operation { return core.OpEmail }
func (e *Email) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	m, _ := ctx.Input.(map[string]interface{})
	return respond(e.name, core.OpEmail, start, true, map[string]interface{}{
		"to": m["to"], "subject": m["subject"], "body": interpolate.Value(m["body"], ctx.PreviousOutputs),
	}, ""), nil
}

// SMS builds a message envelope for a host-provided SMS gateway.
type SMS struct{ name string }

func (s *SMS) Name() string         { return s.name }
func (s *SMS) Type() core.Operation { return core.OpSMS }
func (s *SMS) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	m, _ := ctx.Input.(map[string]interface{})
	return respond(s.name, core.OpSMS, start, true, map[string]interface{}{"to": m["to"], "body": m["body"]}, ""), nil
}

// Form renders a structured form description from input.
type Form struct{ name string }

func (f *Form) Name() string         { return f.name }
func (f *Form) Type() core.Operation { return core.OpForm }
func (f *Form) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	m, _ := ctx.Input.(map[string]interface{})
	return respond(f.name, core.OpForm, start, true, map[string]interface{}{"fields": m["fields"]}, ""), nil
}

// Page renders a templated page body.
type Page struct{ name string }

func (p *Page) Name() string         { return p.name }
func (p *Page) Type() core.Operation { return core.OpPage }
func (p *Page) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	return respond(p.name, core.OpPage, start, true, map[string]interface{}{"body": renderTemplate(ctx.Input)}, ""), nil
}

// HTML renders a templated HTML fragment.
type HTML struct{ name string }

func (h *HTML) Name() string         { return h.name }
func (h *HTML) Type() core.Operation { return core.OpHTML }
func (h *HTML) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	return respond(h.name, core.OpHTML, start, true, map[string]interface{}{"html": renderTemplate(ctx.Input)}, ""), nil
}

// PDF describes a rendering job for a host-provided PDF renderer.
type PDF struct{ name string }

func (p *PDF) Name() string         { return p.name }
func (p *PDF) Type() core.Operation { return core.OpPDF }
func (p *PDF) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	m, _ := ctx.Input.(map[string]interface{})
	return respond(p.name, core.OpPDF, start, true, map[string]interface{}{"source": m["template"]}, ""), nil
}

// Docs describes a document-generation job for a host-provided renderer.
type Docs struct{ name string }

func (d *Docs) Name() string         { return d.name }
func (d *Docs) Type() core.Operation { return core.OpDocs }
func (d *Docs) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	start := time.Now()
	m, _ := ctx.Input.(map[string]interface{})
	return respond(d.name, core.OpDocs, start, true, map[string]interface{}{"source": m["template"]}, ""), nil
}

// Handler is an inline function the host registers directly in Go; the
// engine runs it in-process and never compiles or sandboxes it (spec §1).
type Handler func(ctx core.AgentContext) (core.AgentResponse, error)

// Code runs a host-registered inline handler. config["handler"] must be a
// Handler set by Go code constructing the ensemble's dependencies; there
// is no script-from-YAML path since the core never compiles user code.
type Code struct {
	name    string
	handler Handler
}

// NewCode constructs the `code` operation agent.
func NewCode(name string, config map[string]interface{}) (core.Agent, error) {
	h, ok := config["handler"].(Handler)
	if !ok {
		return nil, core.AgentConfig(name, "code requires a host-registered handler function")
	}
	return &Code{name: name, handler: h}, nil
}

func (c *Code) Name() string         { return c.name }
func (c *Code) Type() core.Operation { return core.OpCode }
func (c *Code) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	return c.handler(ctx)
}
