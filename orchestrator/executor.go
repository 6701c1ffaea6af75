package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/ensemble-edge/conductor/agent"
	"github.com/ensemble-edge/conductor/core"
	"github.com/ensemble-edge/conductor/corelog"
	"github.com/ensemble-edge/conductor/ensemble"
	"github.com/ensemble-edge/conductor/interpolate"
	"github.com/ensemble-edge/conductor/notify"
	"github.com/ensemble-edge/conductor/scoring"
	"github.com/ensemble-edge/conductor/state"
	"github.com/google/uuid"
)

// Executor runs ensembles end to end (spec §4.8). One Executor is shared
// across runs; all per-run state lives in the run's own FlowContext.
type Executor struct {
	resolver  *agent.Resolver
	notifier  *notify.Manager
	scorer    *scoring.Executor
	telemetry core.Telemetry
	logger    corelog.Logger
	env       map[string]string
}

// NewExecutor constructs an Executor. notifier/telemetry/logger may be nil;
// safe no-op defaults are used throughout.
func NewExecutor(resolver *agent.Resolver, notifier *notify.Manager, telemetry core.Telemetry, logger corelog.Logger, env map[string]string) *Executor {
	return &Executor{
		resolver:  resolver,
		notifier:  notifier,
		scorer:    scoring.NewExecutor(),
		telemetry: core.SafeTelemetry(telemetry),
		logger:    corelog.SafeComponent(logger, "conductor/orchestrator"),
		env:       env,
	}
}

// ExecuteFromYAML implements spec §4.8's parse-validate-execute entry
// point: parse the document, validate its agent references against the
// resolver's available names, then run it.
func (x *Executor) ExecuteFromYAML(ctx context.Context, yamlBytes []byte, input interface{}) (ExecutionResult, error) {
	e, err := ensemble.Parse(yamlBytes)
	if err != nil {
		return ExecutionResult{}, err
	}
	if err := ensemble.ValidateReferences(e, x.resolver.AvailableNames()); err != nil {
		return ExecutionResult{}, err
	}
	return x.ExecuteEnsemble(ctx, e, input)
}

// ExecuteEnsemble implements executeEnsemble (spec §4.8).
func (x *Executor) ExecuteEnsemble(ctx context.Context, e *ensemble.Ensemble, input interface{}) (ExecutionResult, error) {
	executionID := uuid.NewString()
	startTime := time.Now()
	metrics := Metrics{Ensemble: e.Name}

	spanCtx, span := x.telemetry.StartSpan(ctx, "orchestrator.execute_ensemble")
	span.SetAttribute("ensemble", e.Name)
	span.SetAttribute("executionId", executionID)
	defer span.End()

	x.emit(spanCtx, x.notifier.EmitExecutionStarted, e.Name, map[string]interface{}{"executionId": executionID})

	stateManager := state.New(e.State)

	var scoringState *scoring.State
	if e.Scoring != nil && e.Scoring.Enabled {
		scoringState = scoring.NewState()
	}

	executionContext := map[string]interface{}{
		"input":   input,
		"state":   stateManager.State(),
		"scoring": scoringView(scoringState),
	}

	result, err := x.executeFlow(spanCtx, e, executionContext, stateManager, scoringState, &metrics, 0, startTime)
	if err != nil {
		span.RecordError(err)
		x.emit(spanCtx, x.notifier.EmitExecutionFailed, e.Name, map[string]interface{}{
			"executionId": executionID, "message": err.Error(), "duration": time.Since(startTime),
		})
		return result, err
	}

	x.emit(spanCtx, x.notifier.EmitExecutionCompleted, e.Name, map[string]interface{}{
		"executionId": executionID, "output": result.Output, "duration": result.Metrics.TotalDuration,
	})
	return result, nil
}

// Resume implements spec §4.8's resumeExecution: it reconstitutes the run
// from a host-provided SuspendedState and continues executeFlow at
// resumeFromStep with resumeInput threaded into the execution context.
func (x *Executor) Resume(ctx context.Context, e *ensemble.Ensemble, suspended SuspendedState, resumeInput interface{}) (ExecutionResult, error) {
	executionContext := suspended.ExecutionContext
	if executionContext == nil {
		executionContext = map[string]interface{}{}
	}
	executionContext["resumeInput"] = resumeInput

	stateManager := suspended.StateManager
	if stateManager == nil {
		stateManager = state.New(e.State)
	}
	executionContext["state"] = stateManager.State()
	executionContext["scoring"] = scoringView(suspended.ScoringState)

	metrics := suspended.Metrics
	metrics.Ensemble = e.Name

	result, err := x.executeFlow(ctx, e, executionContext, stateManager, suspended.ScoringState, &metrics, suspended.ResumeFromStep, suspended.StartTime)
	if err != nil {
		x.emit(ctx, x.notifier.EmitExecutionFailed, e.Name, map[string]interface{}{
			"executionId": suspended.ExecutionID, "message": err.Error(),
		})
		return result, err
	}
	x.emit(ctx, x.notifier.EmitExecutionCompleted, e.Name, map[string]interface{}{
		"executionId": suspended.ExecutionID, "output": result.Output, "duration": result.Metrics.TotalDuration,
	})
	return result, nil
}

// executeFlow implements executeFlow (spec §4.8), walking
// ensemble.Flow[startStep:] in order.
func (x *Executor) executeFlow(ctx context.Context, e *ensemble.Ensemble, executionContext map[string]interface{}, stateManager *state.Manager, scoringState *scoring.State, metrics *Metrics, startStep int, startTime time.Time) (ExecutionResult, error) {
	var lastAgentName string
	var lastOutput interface{}

	for i := startStep; i < len(e.Flow); i++ {
		step := e.Flow[i]

		resolvedInput := resolveStepInput(step, executionContext, i, lastAgentName)

		bareName, _, parseErr := ensemble.ParseAgentReference(step.Agent)
		if parseErr != nil {
			return ExecutionResult{Metrics: *metrics}, core.Wrap(core.KindEnsembleExecution, "invalid agent reference", parseErr).WithEnsemble(e.Name, step.Agent)
		}

		resolved, err := x.resolver.ResolveForStep(step.Agent, step.Input)
		if err != nil {
			return ExecutionResult{Metrics: *metrics}, core.Wrap(core.KindEnsembleExecution, "failed to resolve step agent", err).WithEnsemble(e.Name, step.Agent)
		}

		var view core.StateView
		var setState core.SetStateFunc
		var pending *state.PendingUpdates
		if step.State != nil {
			view, setState, pending = stateManager.GetStateForAgent(bareName, *step.State, x.logger)
		}

		agentCtx := core.AgentContext{
			Input:           resolvedInput,
			Env:             x.env,
			RuntimeCtx:      ctx,
			PreviousOutputs: executionContext,
			State:           view,
			SetState:        setState,
			Logger:          x.logger,
		}

		stepStart := time.Now()
		var resp core.AgentResponse
		var scoreHistory []scoring.Entry

		if step.Scoring != nil {
			if scoringState == nil {
				scoringState = scoring.NewState()
			}
			cfg := mergeScoringConfig(e.Scoring, step.Scoring)
			execFn := func(attempt int) (core.AgentResponse, error) {
				return resolved.Execute(agentCtx)
			}
			evalFn := x.evaluatorFunc(ctx, e, step, bareName)

			var sres scoring.Result
			sres, scoreHistory, err = x.scorer.Run(ctx, bareName, cfg, execFn, evalFn, x.logger)
			if stateManager != nil {
				stateManager = stateManager.ApplyPendingUpdates(pending)
			}
			if err != nil {
				return ExecutionResult{Metrics: *metrics}, core.Wrap(core.KindAgentExecution, "scoring executor failed", err).WithEnsemble(e.Name, step.Agent)
			}
			resp = core.AgentResponse{Success: sres.Status != scoring.StatusMaxRetriesExceeded, Data: sres.Output}
			if sres.Status == scoring.StatusMaxRetriesExceeded {
				x.logger.Warn(fmt.Sprintf("orchestrator: step %q exceeded max retries without passing", bareName), nil)
			}
			for _, entry := range scoreHistory {
				scoringState = scoring.UpdateScoringState(scoringState, entry)
			}
		} else {
			resp, err = resolved.Execute(agentCtx)
			if err == nil && stateManager != nil {
				stateManager = stateManager.ApplyPendingUpdates(pending)
			}
		}

		duration := time.Since(stepStart)
		metrics.Agents = append(metrics.Agents, AgentMetric{Name: bareName, Duration: duration, Cached: resp.Cached, Success: resp.Success})
		if resp.Cached {
			metrics.CacheHits++
		}

		x.emit(ctx, x.notifier.EmitAgentCompleted, e.Name, map[string]interface{}{"agent": bareName, "success": resp.Success, "duration": duration})

		if err != nil {
			return ExecutionResult{Metrics: *metrics}, core.Wrap(core.KindAgentExecution, "agent execution failed", err).WithEnsemble(e.Name, step.Agent)
		}
		if !resp.Success {
			return ExecutionResult{Metrics: *metrics}, core.New(core.KindAgentExecution, resp.Error).WithEnsemble(e.Name, step.Agent)
		}

		executionContext[bareName] = map[string]interface{}{"output": resp.Data}
		executionContext["state"] = stateManager.State()
		executionContext["scoring"] = scoringView(scoringState)
		lastAgentName = bareName
		lastOutput = resp.Data

		if setState != nil {
			x.emit(ctx, x.notifier.EmitStateUpdated, e.Name, map[string]interface{}{"agent": bareName})
		}
	}

	if scoringState != nil && len(scoringState.ScoreHistory) > 0 {
		scorer := scoring.NewScorer(nil)
		scoringState.FinalScore = scorer.EnsembleScore(scoringState.ScoreHistory)
		scoringState.QualityMetrics = scorer.QualityMetrics(scoringState.ScoreHistory)
	}

	output := resolveOutput(e, executionContext, lastOutput)
	metrics.TotalDuration = time.Since(startTime)

	var stateReport *state.AccessReport
	if stateManager != nil {
		report := stateManager.GetAccessReport()
		stateReport = &report
	}

	return ExecutionResult{Output: output, Metrics: *metrics, StateReport: stateReport, Scoring: scoringState}, nil
}

func resolveStepInput(step ensemble.FlowStep, executionContext map[string]interface{}, stepIndex int, lastAgentName string) interface{} {
	if step.Input != nil {
		return interpolate.Value(step.Input, executionContext)
	}
	if stepIndex > 0 {
		if prev, ok := executionContext[lastAgentName].(map[string]interface{}); ok {
			return prev["output"]
		}
	}
	return executionContext["input"]
}

func resolveOutput(e *ensemble.Ensemble, executionContext map[string]interface{}, lastOutput interface{}) interface{} {
	if e.Output != nil {
		return interpolate.Value(e.Output, executionContext)
	}
	if lastOutput != nil {
		return lastOutput
	}
	return map[string]interface{}{}
}

func scoringView(s *scoring.State) map[string]interface{} {
	if s == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{
		"scoreHistory": s.ScoreHistory,
		"retryCount":   s.RetryCount,
		"finalScore":   s.FinalScore,
	}
}

// evaluatorFunc builds the scoring.EvaluateFunc that resolves and invokes
// the step's configured evaluator agent (spec §4.6 step 2c).
func (x *Executor) evaluatorFunc(ctx context.Context, e *ensemble.Ensemble, step ensemble.FlowStep, agentName string) scoring.EvaluateFunc {
	return func(output interface{}, attempt int, previousScore *float64) (scoring.Score, error) {
		evaluator, err := x.resolver.Resolve(step.Scoring.Evaluator)
		if err != nil {
			return scoring.Score{}, core.Wrap(core.KindAgentExecution, "failed to resolve evaluator", err).WithEnsemble(e.Name, agentName)
		}

		input := map[string]interface{}{
			"output":        output,
			"attempt":       attempt,
			"previousScore": previousScore,
			"criteria":      step.Scoring.Criteria,
		}
		resp, err := evaluator.Execute(core.AgentContext{Input: input, RuntimeCtx: ctx, Env: x.env, Logger: x.logger})
		if err != nil {
			return scoring.Score{}, err
		}

		return extractScore(resp.Data), nil
	}
}

func extractScore(data interface{}) scoring.Score {
	switch v := data.(type) {
	case float64:
		return scoring.Score{Value: v}
	case int:
		return scoring.Score{Value: float64(v)}
	case map[string]interface{}:
		score := scoring.Score{}
		if s, ok := v["score"].(float64); ok {
			score.Value = s
		} else if s, ok := v["value"].(float64); ok {
			score.Value = s
		}
		if fb, ok := v["feedback"].(string); ok {
			score.Feedback = fb
		}
		if bd, ok := v["breakdown"].(map[string]float64); ok {
			score.Breakdown = bd
		}
		return score
	default:
		return scoring.Score{Value: 0}
	}
}

// mergeScoringConfig merges a step's scoring override with the ensemble's
// defaults (spec §3: step thresholds/policy fall back to
// scoring.defaultThresholds/maxRetries/backoffStrategy/initialBackoff).
func mergeScoringConfig(ensembleCfg *ensemble.ScoringConfig, stepCfg *ensemble.StepScoringConfig) scoring.Config {
	cfg := scoring.Config{
		OnFailure:          stepCfg.OnFailure,
		MaxAttempts:        stepCfg.RetryLimit,
		RequireImprovement: stepCfg.RequireImprovement,
	}
	if stepCfg.Thresholds != nil {
		cfg.Minimum = stepCfg.Thresholds.Minimum
	}
	if stepCfg.MinImprovement != nil {
		cfg.MinImprovement = *stepCfg.MinImprovement
	}

	if ensembleCfg != nil {
		if cfg.Minimum == 0 {
			cfg.Minimum = ensembleCfg.DefaultThresholds.Minimum
		}
		if cfg.MaxAttempts == 0 {
			cfg.MaxAttempts = ensembleCfg.MaxRetries
		}
		if cfg.BackoffStrategy == "" {
			cfg.BackoffStrategy = ensembleCfg.BackoffStrategy
		}
		cfg.InitialBackoff = ensembleCfg.InitialBackoff()
	}
	if cfg.BackoffStrategy == "" {
		cfg.BackoffStrategy = ensemble.BackoffExponential
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Second
	}
	return cfg
}

// emit dispatches a notification without blocking flow progress (spec
// §4.9: "Emissions are fire-and-forget"). notify.Manager.emit itself
// waits on every target's full delivery (including webhook retries), so
// that call is pushed onto its own goroutine here; the run must never
// stall on a slow or unreachable notification target. The goroutine's
// context is detached from ctx's cancellation so an in-flight webhook
// retry survives the run (and its span) finishing first. notifier may be
// nil (a host that doesn't care about notifications).
func (x *Executor) emit(ctx context.Context, fn func(context.Context, string, map[string]interface{}) []notify.Result, ensembleName string, payload map[string]interface{}) {
	if x.notifier == nil || fn == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		for _, r := range fn(detached, ensembleName, payload) {
			if !r.Success {
				x.logger.Warn(fmt.Sprintf("notify: delivery failed for %s target %q: %s", r.Type, r.Target, r.Error), nil)
			}
		}
	}()
}
