// Package core holds the vocabulary shared by every Conductor package: the
// error taxonomy and the Agent/AgentContext/AgentResponse contract that
// resolution yields. Keeping these in one leaf package avoids import
// cycles between ensemble, state, registry, agent, scoring, notify, and
// orchestrator.
package core

import (
	"errors"
	"fmt"
)

// Kind identifies which branch of the error taxonomy (spec §3, §7) an
// Error belongs to.
type Kind string

const (
	KindAgentNotFound       Kind = "agent_not_found"
	KindAgentConfig         Kind = "agent_config"
	KindAgentExecution      Kind = "agent_execution"
	KindEnsembleParse       Kind = "ensemble_parse"
	KindEnsembleExecution   Kind = "ensemble_execution"
	KindStorageNotFound     Kind = "storage_not_found"
	KindInternal            Kind = "internal"
)

// Sentinel errors for errors.Is comparisons, mirroring the teacher's
// ErrAgentNotFound/ErrCapabilityNotFound style.
var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrAgentConfig   = errors.New("agent configuration invalid")
	ErrMaxRetries    = errors.New("maximum retries exceeded")
	ErrEnsembleParse = errors.New("ensemble parse failed")

	// ErrSuspended signals that a step (typically the hitl built-in) cannot
	// complete without external input and the run must be suspended, not
	// failed (spec §8 scenario H).
	ErrSuspended = errors.New("execution suspended pending external input")
)

// Error is Conductor's structured error type. It always carries a Kind and
// a human-readable Message, optionally an EnsembleName/AgentName (per
// EnsembleExecutionError in spec §3/§7) and a wrapped cause.
type Error struct {
	Kind         Kind
	Op           string
	Message      string
	EnsembleName string
	AgentName    string
	Err          error
}

func (e *Error) Error() string {
	var b fmt.Stringer
	_ = b
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.EnsembleName != "" && e.AgentName != "":
		return fmt.Sprintf("%s: ensemble %q agent %q: %s", e.Kind, e.EnsembleName, e.AgentName, msg)
	case e.EnsembleName != "":
		return fmt.Sprintf("%s: ensemble %q: %s", e.Kind, e.EnsembleName, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a new Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error that wraps cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// WithEnsemble attaches ensemble/agent context, returning the receiver for
// chaining (matches EnsembleExecutionError's extra fields in spec §3).
func (e *Error) WithEnsemble(ensembleName, agentName string) *Error {
	e.EnsembleName = ensembleName
	e.AgentName = agentName
	return e
}

// AgentNotFound builds a KindAgentNotFound error for the given reference.
func AgentNotFound(ref string) *Error {
	return Wrap(KindAgentNotFound, fmt.Sprintf("no agent registered for reference %q", ref), ErrAgentNotFound)
}

// AgentConfig builds a KindAgentConfig error.
func AgentConfig(ref, reason string) *Error {
	return &Error{Kind: KindAgentConfig, Message: fmt.Sprintf("%s: %s", ref, reason), Err: ErrAgentConfig}
}

// IsNotFound reports whether err (or a wrapped cause) is an agent-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAgentNotFound)
}

// IsKind reports whether err is a *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
