package ensemble

import (
	"fmt"
	"strings"
)

// fieldError is one path-annotated validation failure (spec §4.2 step 2:
// "produce a list of path-annotated errors").
type fieldError struct {
	path   string
	reason string
}

func (e fieldError) String() string {
	return fmt.Sprintf("%s: %s", e.path, e.reason)
}

// Report collects every validation failure found while checking an
// Ensemble's structure and domain rules.
type Report struct {
	errors []fieldError
}

func (r *Report) add(path, reason string) {
	r.errors = append(r.errors, fieldError{path: path, reason: reason})
}

// OK reports whether the report is free of errors.
func (r *Report) OK() bool { return len(r.errors) == 0 }

// Summary renders every collected error as "path: reason", joined by "; "
// on a single line, matching spec §4.2's "path.to.field: reason" format.
func (r *Report) Summary() string {
	lines := make([]string, len(r.errors))
	for i, e := range r.errors {
		lines[i] = e.String()
	}
	return strings.Join(lines, "; ")
}

var validBackoff = map[BackoffStrategy]bool{
	BackoffLinear: true, BackoffExponential: true, BackoffFixed: true,
}

var validAggregation = map[Aggregation]bool{
	AggregationWeightedAverage: true, AggregationMinimum: true, AggregationGeometricMean: true,
}

var validOnFailure = map[OnFailurePolicy]bool{
	OnFailureRetry: true, OnFailureContinue: true, OnFailureAbort: true,
}

var validTriggerType = map[TriggerType]bool{
	TriggerWebhook: true, TriggerMCP: true, TriggerEmail: true, TriggerQueue: true, TriggerCron: true,
}

var validNotificationType = map[NotificationType]bool{
	NotificationWebhook: true, NotificationEmail: true,
}

// validate runs the schema checks of spec §4.2 step 2 plus the domain rule
// of step 3 (every webhook/mcp/email trigger carries auth or public:true).
func validate(e *Ensemble) *Report {
	r := &Report{}

	if strings.TrimSpace(e.Name) == "" {
		r.add("name", "must be non-empty")
	}

	if e.Scoring != nil {
		validateScoring(e.Scoring, r)
	}

	for i, trig := range e.Trigger {
		path := fmt.Sprintf("trigger[%d]", i)
		if !validTriggerType[trig.Type] {
			r.add(path+".type", fmt.Sprintf("unknown trigger type %q", trig.Type))
			continue
		}
		if trig.RequiresAuth() && len(trig.Auth) == 0 && !trig.Public {
			r.add(path, "webhook/mcp/email triggers must carry auth or public: true")
		}
	}

	for i, n := range e.Notifications {
		path := fmt.Sprintf("notifications[%d]", i)
		if !validNotificationType[n.Type] {
			r.add(path+".type", fmt.Sprintf("unknown notification type %q", n.Type))
			continue
		}
		for j, ev := range n.Events {
			if !validEvent(ev) {
				r.add(fmt.Sprintf("%s.events[%d]", path, j), fmt.Sprintf("unknown event %q", ev))
			}
		}
		switch n.Type {
		case NotificationWebhook:
			if strings.TrimSpace(n.URL) == "" {
				r.add(path+".url", "must be non-empty for a webhook notification")
			}
		case NotificationEmail:
			if len(n.To) == 0 {
				r.add(path+".to", "must be non-empty for an email notification")
			}
		}
	}

	if len(e.Flow) == 0 {
		r.add("flow", "must be a non-empty ordered sequence of steps")
	}

	for i, step := range e.Flow {
		path := fmt.Sprintf("flow[%d]", i)
		if strings.TrimSpace(step.Agent) == "" {
			r.add(path+".agent", "must reference an agent")
		} else if _, _, err := ParseAgentReference(step.Agent); err != nil {
			r.add(path+".agent", err.Error())
		}
		if step.Scoring != nil {
			validateStepScoring(path+".scoring", step.Scoring, r)
		}
	}

	return r
}

func validateScoring(s *ScoringConfig, r *Report) {
	if s.DefaultThresholds.Minimum < 0 || s.DefaultThresholds.Minimum > 1 {
		r.add("scoring.defaultThresholds.minimum", "must be in [0,1]")
	}
	if t := s.DefaultThresholds.Target; t != nil && (*t < 0 || *t > 1) {
		r.add("scoring.defaultThresholds.target", "must be in [0,1]")
	}
	if ex := s.DefaultThresholds.Excellent; ex != nil && (*ex < 0 || *ex > 1) {
		r.add("scoring.defaultThresholds.excellent", "must be in [0,1]")
	}
	if s.Enabled && s.MaxRetries != 0 && s.MaxRetries < 1 {
		r.add("scoring.maxRetries", "must be >= 1")
	}
	if s.BackoffStrategy != "" && !validBackoff[s.BackoffStrategy] {
		r.add("scoring.backoffStrategy", fmt.Sprintf("must be one of linear, exponential, fixed, got %q", s.BackoffStrategy))
	}
	if s.Aggregation != "" && !validAggregation[s.Aggregation] {
		r.add("scoring.aggregation", fmt.Sprintf("must be one of weighted_average, minimum, geometric_mean, got %q", s.Aggregation))
	}
}

func validateStepScoring(path string, s *StepScoringConfig, r *Report) {
	if s.Thresholds != nil && (s.Thresholds.Minimum < 0 || s.Thresholds.Minimum > 1) {
		r.add(path+".thresholds.minimum", "must be in [0,1]")
	}
	if s.OnFailure != "" && !validOnFailure[s.OnFailure] {
		r.add(path+".onFailure", fmt.Sprintf("must be one of retry, continue, abort, got %q", s.OnFailure))
	}
	if s.RetryLimit < 0 {
		r.add(path+".retryLimit", "must be >= 0")
	}
}

func validEvent(e LifecycleEvent) bool {
	switch e {
	case EventExecutionStarted, EventExecutionCompleted, EventExecutionFailed,
		EventExecutionTimeout, EventAgentCompleted, EventStateUpdated:
		return true
	default:
		return false
	}
}
