// Package ensemble defines the typed Ensemble document (spec §3) and the
// YAML parser/validator that produces it (spec §4.2). Types here are the
// target of decode; validation and reference-checking live in
// validate.go and reference.go.
package ensemble

import "time"

// Ensemble is the immutable, validated workflow document produced by
// Parse. Once parsed, an Ensemble is never mutated.
type Ensemble struct {
	Name          string                 `yaml:"name"`
	Description   string                 `yaml:"description"`
	State         *StateConfig           `yaml:"state"`
	Scoring       *ScoringConfig         `yaml:"scoring"`
	Trigger       []Trigger              `yaml:"trigger"`
	Notifications []Notification         `yaml:"notifications"`
	Flow          []FlowStep             `yaml:"flow"`
	Output        map[string]interface{} `yaml:"output"`
}

// StateConfig is the ensemble's declared shared-state shape (spec §3).
type StateConfig struct {
	Schema  map[string]interface{} `yaml:"schema"`
	Initial map[string]interface{} `yaml:"initial"`
}

// Thresholds bounds a score in [0,1] (spec §3).
type Thresholds struct {
	Minimum   float64  `yaml:"minimum"`
	Target    *float64 `yaml:"target"`
	Excellent *float64 `yaml:"excellent"`
}

// BackoffStrategy enumerates the scoring executor's backoff curve (spec §4.6).
type BackoffStrategy string

const (
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
	BackoffFixed       BackoffStrategy = "fixed"
)

// Aggregation enumerates how the ensemble scorer combines per-agent scores
// (spec §3).
type Aggregation string

const (
	AggregationWeightedAverage Aggregation = "weighted_average"
	AggregationMinimum         Aggregation = "minimum"
	AggregationGeometricMean   Aggregation = "geometric_mean"
)

// ScoringConfig is the ensemble-wide scoring configuration (spec §3).
type ScoringConfig struct {
	Enabled           bool                   `yaml:"enabled"`
	DefaultThresholds Thresholds             `yaml:"defaultThresholds"`
	MaxRetries        int                    `yaml:"maxRetries"`
	BackoffStrategy   BackoffStrategy        `yaml:"backoffStrategy"`
	InitialBackoffMS  int                    `yaml:"initialBackoff"`
	TrackInState      bool                   `yaml:"trackInState"`
	Criteria          map[string]interface{} `yaml:"criteria"`
	Aggregation       Aggregation            `yaml:"aggregation"`
}

// InitialBackoff returns the configured initial backoff, defaulting to 1s
// per spec §4.6.
func (s *ScoringConfig) InitialBackoff() time.Duration {
	if s == nil || s.InitialBackoffMS <= 0 {
		return time.Second
	}
	return time.Duration(s.InitialBackoffMS) * time.Millisecond
}

// TriggerType enumerates the tagged trigger variants (spec §3).
type TriggerType string

const (
	TriggerWebhook TriggerType = "webhook"
	TriggerMCP     TriggerType = "mcp"
	TriggerEmail   TriggerType = "email"
	TriggerQueue   TriggerType = "queue"
	TriggerCron    TriggerType = "cron"
)

// Trigger is one entry in the ensemble's ordered trigger list. Auth/Public
// are hoisted out because the domain rule in spec §4.2 step 3 depends on
// them; every other field is variant-specific and kept in Extra.
type Trigger struct {
	Type   TriggerType
	Auth   map[string]interface{}
	Public bool
	Extra  map[string]interface{}
}

// RequiresAuth reports whether this trigger kind is subject to the
// "auth or public" domain rule (spec §3, §4.2).
func (t Trigger) RequiresAuth() bool {
	switch t.Type {
	case TriggerWebhook, TriggerMCP, TriggerEmail:
		return true
	default:
		return false
	}
}

// NotificationType enumerates the tagged notification variants (spec §3).
type NotificationType string

const (
	NotificationWebhook NotificationType = "webhook"
	NotificationEmail   NotificationType = "email"
)

// LifecycleEvent enumerates the events notifications/targets subscribe to
// (spec §3, §4.9).
type LifecycleEvent string

const (
	EventExecutionStarted   LifecycleEvent = "execution.started"
	EventExecutionCompleted LifecycleEvent = "execution.completed"
	EventExecutionFailed    LifecycleEvent = "execution.failed"
	EventExecutionTimeout   LifecycleEvent = "execution.timeout"
	EventAgentCompleted     LifecycleEvent = "agent.completed"
	EventStateUpdated       LifecycleEvent = "state.updated"
)

// Notification is one entry in the ensemble's notification list (spec §3).
type Notification struct {
	Type    NotificationType
	Events  []LifecycleEvent

	// webhook fields
	URL     string
	Secret  string
	Retries int
	Timeout time.Duration

	// email fields
	To      []string
	Subject string
	From    string
}

// Subscribes reports whether this target is subscribed to event.
func (n Notification) Subscribes(event LifecycleEvent) bool {
	for _, e := range n.Events {
		if e == event {
			return true
		}
	}
	return false
}

// OnFailurePolicy enumerates what the scoring executor does when a step's
// score never passes (spec §3, §4.6).
type OnFailurePolicy string

const (
	OnFailureRetry    OnFailurePolicy = "retry"
	OnFailureContinue OnFailurePolicy = "continue"
	OnFailureAbort    OnFailurePolicy = "abort"
)

// StepScoringConfig is a per-step scoring override (spec §3).
type StepScoringConfig struct {
	Evaluator          string                 `yaml:"evaluator"`
	Thresholds         *Thresholds            `yaml:"thresholds"`
	Criteria           map[string]interface{} `yaml:"criteria"`
	OnFailure          OnFailurePolicy        `yaml:"onFailure"`
	RetryLimit         int                    `yaml:"retryLimit"`
	RequireImprovement bool                   `yaml:"requireImprovement"`
	MinImprovement     *float64               `yaml:"minImprovement"`
}

// StepStateConfig declares a step's read/write access to shared state
// (spec §3, §4.3).
type StepStateConfig struct {
	Use []string `yaml:"use"`
	Set []string `yaml:"set"`
}

// CacheConfig is advisory caching metadata a step's agent may consult
// (spec §3).
type CacheConfig struct {
	TTL    time.Duration `yaml:"ttl"`
	Bypass bool          `yaml:"bypass"`
}

// FlowStep is one entry in ensemble.flow (spec §3).
type FlowStep struct {
	Agent     string                 `yaml:"agent"`
	Input     map[string]interface{} `yaml:"input"`
	State     *StepStateConfig       `yaml:"state"`
	Cache     *CacheConfig           `yaml:"cache"`
	Scoring   *StepScoringConfig     `yaml:"scoring"`
	Condition string                 `yaml:"condition"` // reserved, not evaluated by the core
}
