// Package scoring implements the retry-with-evaluator loop of spec §4.6
// and the ensemble-level aggregation of spec §4.7.
package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/ensemble-edge/conductor/core"
	"github.com/ensemble-edge/conductor/corelog"
	"github.com/ensemble-edge/conductor/ensemble"
)

// Status is the outcome of one scoring run (spec §4.6).
type Status string

const (
	StatusPassed             Status = "passed"
	StatusBelowThreshold     Status = "below_threshold"
	StatusMaxRetriesExceeded Status = "max_retries_exceeded"
)

// Score is what an evaluator agent's output is reduced to.
type Score struct {
	Value     float64
	Passed    bool
	Feedback  string
	Breakdown map[string]float64
}

// Entry is one row of ScoringState.ScoreHistory (spec §3).
type Entry struct {
	Agent     string
	Score     float64
	Passed    bool
	Feedback  string
	Breakdown map[string]float64
	Timestamp time.Time
	Attempt   int
}

// ExecuteFunc runs the scored agent once.
type ExecuteFunc func(attempt int) (core.AgentResponse, error)

// EvaluateFunc resolves the evaluator agent and reduces its output to a Score.
type EvaluateFunc func(output interface{}, attempt int, previousScore *float64) (Score, error)

// Config is a step's resolved scoring configuration (ensemble-wide
// defaults merged with any per-step override, spec §3).
type Config struct {
	Minimum            float64
	OnFailure          ensemble.OnFailurePolicy
	MaxAttempts        int
	BackoffStrategy    ensemble.BackoffStrategy
	InitialBackoff     time.Duration
	RequireImprovement bool
	MinImprovement     float64
}

// Result is the outcome handed back to the orchestrator.
type Result struct {
	Output   interface{}
	Score    Score
	Attempts int
	Status   Status
}

// Executor runs the retry loop of spec §4.6.
type Executor struct{}

// NewExecutor constructs an Executor. It is stateless; one instance
// serves every step in every run.
func NewExecutor() *Executor { return &Executor{} }

// Run executes execute, scoring its output with evaluate and retrying per
// cfg, until the score passes, the policy resolves the failure, or
// attempts are exhausted. It always returns the full score history
// accumulated this call, regardless of final status.
func (e *Executor) Run(ctx context.Context, agentName string, cfg Config, execute ExecuteFunc, evaluate EvaluateFunc, logger corelog.Logger) (Result, []Entry, error) {
	log := corelog.Safe(logger)

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoff := cfg.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	minImprovement := cfg.MinImprovement
	if minImprovement <= 0 {
		minImprovement = 0.05
	}

	var history []Entry
	var lastScore *float64
	attempts := 0

	for attempts < maxAttempts {
		attempts++

		resp, err := execute(attempts)
		if err != nil {
			if attempts >= maxAttempts {
				return Result{Attempts: attempts, Status: StatusMaxRetriesExceeded}, history, err
			}
			if waitErr := sleep(ctx, backoff); waitErr != nil {
				return Result{Attempts: attempts, Status: StatusMaxRetriesExceeded}, history, waitErr
			}
			backoff = nextBackoff(cfg.BackoffStrategy, backoff)
			continue
		}

		score, evalErr := evaluate(resp.Data, attempts, lastScore)
		if evalErr != nil {
			return Result{Attempts: attempts, Status: StatusMaxRetriesExceeded}, history, evalErr
		}
		score.Passed = score.Value >= cfg.Minimum

		history = append(history, Entry{
			Agent: agentName, Score: score.Value, Passed: score.Passed,
			Feedback: score.Feedback, Breakdown: score.Breakdown,
			Timestamp: time.Now(), Attempt: attempts,
		})

		if score.Passed {
			return Result{Output: resp.Data, Score: score, Attempts: attempts, Status: StatusPassed}, history, nil
		}

		if cfg.RequireImprovement && attempts > 1 && lastScore != nil && score.Value-*lastScore < minImprovement {
			return Result{Output: resp.Data, Score: score, Attempts: attempts, Status: StatusMaxRetriesExceeded}, history, nil
		}
		v := score.Value
		lastScore = &v

		switch cfg.OnFailure {
		case ensemble.OnFailureContinue:
			log.Warn(fmt.Sprintf("scoring: %s below threshold, continuing per onFailure=continue", agentName), nil)
			return Result{Output: resp.Data, Score: score, Attempts: attempts, Status: StatusBelowThreshold}, history, nil
		case ensemble.OnFailureAbort:
			return Result{}, history, core.New(core.KindInternal, fmt.Sprintf("score %.2f below minimum %.2f", score.Value, cfg.Minimum))
		default: // retry
			if attempts < maxAttempts {
				if waitErr := sleep(ctx, backoff); waitErr != nil {
					return Result{Attempts: attempts, Status: StatusMaxRetriesExceeded}, history, waitErr
				}
				backoff = nextBackoff(cfg.BackoffStrategy, backoff)
			}
		}
	}

	return Result{Attempts: attempts, Status: StatusMaxRetriesExceeded}, history, nil
}

// nextBackoff advances prev by the configured strategy (spec §4.6,
// property (8)): exponential doubles capped at 60s, linear adds 1s capped
// at 30s, fixed never changes.
func nextBackoff(strategy ensemble.BackoffStrategy, prev time.Duration) time.Duration {
	switch strategy {
	case ensemble.BackoffLinear:
		next := prev + time.Second
		if next > 30*time.Second {
			next = 30 * time.Second
		}
		return next
	case ensemble.BackoffFixed:
		return prev
	default: // exponential
		next := prev * 2
		if next > 60*time.Second {
			next = 60 * time.Second
		}
		return next
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if ctx == nil {
		time.Sleep(d)
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
