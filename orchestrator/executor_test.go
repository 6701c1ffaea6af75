package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ensemble-edge/conductor/agent"
	"github.com/ensemble-edge/conductor/core"
	"github.com/ensemble-edge/conductor/ensemble"
	"github.com/ensemble-edge/conductor/notify"
	"github.com/ensemble-edge/conductor/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoAgent struct {
	name   string
	suffix string
}

func (e *echoAgent) Name() string         { return e.name }
func (e *echoAgent) Type() core.Operation { return core.OpCode }
func (e *echoAgent) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	m, _ := ctx.Input.(map[string]interface{})
	return core.AgentResponse{Success: true, Data: map[string]interface{}{"text": m["text"].(string) + e.suffix}}, nil
}

func TestExecuteEnsembleHappyPathThreeSteps(t *testing.T) {
	resolver := agent.NewResolver(nil, agent.Dependencies{})
	resolver.RegisterAgent("first", &echoAgent{name: "first", suffix: "-a"})
	resolver.RegisterAgent("second", &echoAgent{name: "second", suffix: "-b"})
	resolver.RegisterAgent("third", &echoAgent{name: "third", suffix: "-c"})

	e := &ensemble.Ensemble{
		Name: "demo",
		Flow: []ensemble.FlowStep{
			{Agent: "first", Input: map[string]interface{}{"text": "${input.text}"}},
			{Agent: "second"},
			{Agent: "third"},
		},
	}

	exec := NewExecutor(resolver, nil, nil, nil, nil)
	result, err := exec.ExecuteEnsemble(context.Background(), e, map[string]interface{}{"text": "seed"})

	require.NoError(t, err)
	require.Len(t, result.Metrics.Agents, 3)
	data := result.Output.(map[string]interface{})
	assert.Equal(t, "seed-a-b-c", data["text"])
}

type statefulWriter struct{ name string }

func (s *statefulWriter) Name() string         { return s.name }
func (s *statefulWriter) Type() core.Operation { return core.OpCode }
func (s *statefulWriter) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	ctx.SetState(map[string]interface{}{"count": 1})
	return core.AgentResponse{Success: true, Data: "written"}, nil
}

type statefulReader struct{ name string }

func (s *statefulReader) Name() string         { return s.name }
func (s *statefulReader) Type() core.Operation { return core.OpCode }
func (s *statefulReader) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	return core.AgentResponse{Success: true, Data: ctx.State["count"]}, nil
}

func TestExecuteEnsemblePropagatesDeclaredStateAcrossSteps(t *testing.T) {
	resolver := agent.NewResolver(nil, agent.Dependencies{})
	resolver.RegisterAgent("writer", &statefulWriter{name: "writer"})
	resolver.RegisterAgent("reader", &statefulReader{name: "reader"})

	e := &ensemble.Ensemble{
		Name:  "stateful",
		State: &ensemble.StateConfig{Initial: map[string]interface{}{"count": 0}},
		Flow: []ensemble.FlowStep{
			{Agent: "writer", Input: map[string]interface{}{}, State: &ensemble.StepStateConfig{Set: []string{"count"}}},
			{Agent: "reader", Input: map[string]interface{}{}, State: &ensemble.StepStateConfig{Use: []string{"count"}}},
		},
	}

	exec := NewExecutor(resolver, nil, nil, nil, nil)
	result, err := exec.ExecuteEnsemble(context.Background(), e, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Output)
	require.NotNil(t, result.StateReport)
	assert.Contains(t, result.StateReport.AccessPatterns, "writer")
	assert.Contains(t, result.StateReport.AccessPatterns, "reader")
}

type improvingAgent struct {
	name  string
	calls int
}

func (a *improvingAgent) Name() string         { return a.name }
func (a *improvingAgent) Type() core.Operation { return core.OpCode }
func (a *improvingAgent) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	a.calls++
	return core.AgentResponse{Success: true, Data: a.calls}, nil
}

type scoreByCallAgent struct{ scores []float64 }

func (s *scoreByCallAgent) Name() string         { return "evaluator" }
func (s *scoreByCallAgent) Type() core.Operation { return core.OpCode }
func (s *scoreByCallAgent) Execute(ctx core.AgentContext) (core.AgentResponse, error) {
	m := ctx.Input.(map[string]interface{})
	attempt := m["attempt"].(int)
	return core.AgentResponse{Success: true, Data: map[string]interface{}{"score": s.scores[attempt-1]}}, nil
}

func TestExecuteEnsembleScoringRetriesUntilPassing(t *testing.T) {
	resolver := agent.NewResolver(nil, agent.Dependencies{})
	resolver.RegisterAgent("writer", &improvingAgent{name: "writer"})
	resolver.RegisterAgent("evaluator", &scoreByCallAgent{scores: []float64{0.4, 0.95}})

	minimum := 0.8
	e := &ensemble.Ensemble{
		Name: "scored",
		Flow: []ensemble.FlowStep{{
			Agent: "writer",
			Input: map[string]interface{}{},
			Scoring: &ensemble.StepScoringConfig{
				Evaluator:  "evaluator",
				Thresholds: &ensemble.Thresholds{Minimum: minimum},
				OnFailure:  ensemble.OnFailureRetry,
				RetryLimit: 3,
			},
		}},
	}

	exec := NewExecutor(resolver, nil, nil, nil, nil)
	start := time.Now()
	result, err := exec.ExecuteEnsemble(context.Background(), e, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Output)
	require.NotNil(t, result.Scoring)
	assert.InDelta(t, 0.95, result.Scoring.FinalScore, 1e-9)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestExecuteEnsembleDoesNotBlockOnSlowNotificationTarget(t *testing.T) {
	const serverDelay = 300 * time.Millisecond

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(serverDelay)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resolver := agent.NewResolver(nil, agent.Dependencies{})
	resolver.RegisterAgent("first", &echoAgent{name: "first", suffix: "-a"})

	e := &ensemble.Ensemble{
		Name: "notified",
		Notifications: []ensemble.Notification{{
			Type:    ensemble.NotificationWebhook,
			Events:  []ensemble.LifecycleEvent{ensemble.EventExecutionStarted, ensemble.EventExecutionCompleted, ensemble.EventAgentCompleted},
			URL:     server.URL,
			Retries: 1,
		}},
		Flow: []ensemble.FlowStep{{Agent: "first", Input: map[string]interface{}{"text": "${input.text}"}}},
	}

	notifier := notify.New(e.Notifications, nil)
	exec := NewExecutor(resolver, notifier, nil, nil, nil)

	start := time.Now()
	result, err := exec.ExecuteEnsemble(context.Background(), e, map[string]interface{}{"text": "seed"})
	elapsed := time.Since(start)

	require.NoError(t, err)
	data := result.Output.(map[string]interface{})
	assert.Equal(t, "seed-a", data["text"])
	assert.Less(t, elapsed, serverDelay, "ExecuteEnsemble must return before slow notification delivery completes")
}

func TestExecuteFromYAMLRejectsGhostAgentReference(t *testing.T) {
	resolver := agent.NewResolver(nil, agent.Dependencies{})
	exec := NewExecutor(resolver, nil, nil, nil, nil)

	yamlDoc := []byte(`
name: broken
flow:
  - agent: ghost
    input:
      text: hi
`)
	_, err := exec.ExecuteFromYAML(context.Background(), yamlDoc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestResumeContinuesFromSuspendedStep(t *testing.T) {
	hitlAgent, err := registry.Create("hitl", map[string]interface{}{}, nil)
	require.NoError(t, err)

	resolver := agent.NewResolver(nil, agent.Dependencies{})
	resolver.RegisterAgent("intake", &echoAgent{name: "intake", suffix: ""})
	resolver.RegisterAgent("hitl", hitlAgent)

	e := &ensemble.Ensemble{
		Name: "approval",
		Flow: []ensemble.FlowStep{
			{Agent: "intake", Input: map[string]interface{}{"text": "${input.text}"}},
			{Agent: "hitl", Input: map[string]interface{}{"approved": "${resumeInput.approved}"}},
		},
	}

	exec := NewExecutor(resolver, nil, nil, nil, nil)
	_, err = exec.ExecuteEnsemble(context.Background(), e, map[string]interface{}{"text": "doc"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSuspended))

	suspended := SuspendedState{
		EnsembleName:     e.Name,
		ResumeFromStep:   1,
		ExecutionContext: map[string]interface{}{"input": map[string]interface{}{"text": "doc"}, "intake": map[string]interface{}{"output": map[string]interface{}{"text": "doc"}}},
		StartTime:        time.Now(),
	}
	result, err := exec.Resume(context.Background(), e, suspended, map[string]interface{}{"approved": true})
	require.NoError(t, err)
	data := result.Output.(map[string]interface{})
	assert.Equal(t, true, data["approved"])
}
