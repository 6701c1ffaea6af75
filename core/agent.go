package core

import (
	"context"
	"time"

	"github.com/ensemble-edge/conductor/corelog"
)

// Operation identifies the operation-typed constructors dispatched by the
// resolver (spec §4.5): think, http(api), storage(data), email, sms, form,
// page, html, pdf, docs, code — plus the seven named built-ins which carry
// their own Operation for registry bookkeeping (spec §4.4).
type Operation string

const (
	OpThink    Operation = "think"
	OpHTTP     Operation = "http"
	OpStorage  Operation = "storage"
	OpEmail    Operation = "email"
	OpSMS      Operation = "sms"
	OpForm     Operation = "form"
	OpPage     Operation = "page"
	OpHTML     Operation = "html"
	OpPDF      Operation = "pdf"
	OpDocs     Operation = "docs"
	OpCode     Operation = "code"
	OpScrape   Operation = "scrape"
	OpValidate Operation = "validate"
	OpRAG      Operation = "rag"
	OpHITL     Operation = "hitl"
	OpFetch    Operation = "fetch"
	OpTools    Operation = "tools"
	OpQueries  Operation = "queries"
)

// AgentResponse is the output envelope every Agent.Execute call returns
// (spec §3, §6).
type AgentResponse struct {
	Success       bool
	Data          interface{}
	Error         string
	Cached        bool
	ExecutionTime time.Duration
	Timestamp     time.Time
	Metadata      AgentResponseMetadata
}

// AgentResponseMetadata is the {agent, type} pair carried on every response.
type AgentResponseMetadata struct {
	Agent string
	Type  Operation
}

// StateView is the read-only subset of shared state an agent may observe,
// restricted to the keys declared in its step's `state.use` list (spec §4.3).
type StateView map[string]interface{}

// SetStateFunc is the write sink an agent may call; keys outside the
// step's declared `state.set` list are rejected by the StateManager, not
// by the function itself (spec §4.3 — writes to undeclared keys are
// dropped by the manager, with a warning log).
type SetStateFunc func(updates map[string]interface{})

// AgentContext is the input envelope passed to Agent.Execute (spec §3, §6).
type AgentContext struct {
	Input            interface{}
	Env              map[string]string
	RuntimeCtx       context.Context
	PreviousOutputs  map[string]interface{}
	State            StateView
	SetState         SetStateFunc
	Logger           corelog.Logger
}

// Agent is the uniform contract every built-in or user-registered member
// satisfies (spec §3 "Agent interface").
type Agent interface {
	Name() string
	Type() Operation
	Execute(ctx AgentContext) (AgentResponse, error)
}

// Completer is the narrow LLM-call contract the `think` built-in depends
// on. Conductor never binds it to a specific provider SDK (spec §1 places
// individual agent implementations out of scope); a host wires a concrete
// implementation (OpenAI, Bedrock, a local model, ...).
type Completer interface {
	Complete(ctx context.Context, prompt string, opts map[string]interface{}) (string, error)
}

// KeyValueStore is the narrow persistence contract the `storage`/`data`
// built-in depends on. Conductor never imports a specific database
// driver itself (spec §1: persistent stores are repository capabilities).
type KeyValueStore interface {
	Get(ctx context.Context, key string) (interface{}, bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}
