package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/ensemble-edge/conductor/core"
	"github.com/ensemble-edge/conductor/ensemble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryThenPass(t *testing.T) {
	scores := []float64{0.5, 0.6, 0.9}
	cfg := Config{
		Minimum: 0.8, OnFailure: ensemble.OnFailureRetry, MaxAttempts: 3,
		BackoffStrategy: ensemble.BackoffExponential, InitialBackoff: 10 * time.Millisecond,
	}

	exec := NewExecutor()
	start := time.Now()
	result, history, err := exec.Run(context.Background(), "writer", cfg,
		func(attempt int) (core.AgentResponse, error) {
			return core.AgentResponse{Success: true, Data: attempt}, nil
		},
		func(output interface{}, attempt int, previousScore *float64) (Score, error) {
			return Score{Value: scores[attempt-1]}, nil
		}, nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, StatusPassed, result.Status)
	assert.Equal(t, 3, result.Attempts)
	assert.InDelta(t, 0.9, result.Score.Value, 1e-9)
	require.Len(t, history, 3)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestMaxRetriesWithOnFailureContinue(t *testing.T) {
	cfg := Config{
		Minimum: 0.8, OnFailure: ensemble.OnFailureContinue, MaxAttempts: 3,
		BackoffStrategy: ensemble.BackoffExponential, InitialBackoff: time.Millisecond,
	}

	calls := 0
	exec := NewExecutor()
	result, history, err := exec.Run(context.Background(), "writer", cfg,
		func(attempt int) (core.AgentResponse, error) {
			calls++
			return core.AgentResponse{Success: true, Data: "draft"}, nil
		},
		func(output interface{}, attempt int, previousScore *float64) (Score, error) {
			return Score{Value: 0.5}, nil
		}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, calls, "onFailure=continue never retries")
	assert.Equal(t, StatusBelowThreshold, result.Status)
	assert.Equal(t, "draft", result.Output)
	require.Len(t, history, 1)
}

func TestRetryBoundExhaustsAtRetryLimit(t *testing.T) {
	cfg := Config{
		Minimum: 0.9, OnFailure: ensemble.OnFailureRetry, MaxAttempts: 4,
		BackoffStrategy: ensemble.BackoffFixed, InitialBackoff: time.Millisecond,
	}

	attempts := 0
	exec := NewExecutor()
	result, history, err := exec.Run(context.Background(), "writer", cfg,
		func(attempt int) (core.AgentResponse, error) {
			attempts++
			return core.AgentResponse{Success: true}, nil
		},
		func(output interface{}, attempt int, previousScore *float64) (Score, error) {
			return Score{Value: 0.1}, nil
		}, nil)

	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, StatusMaxRetriesExceeded, result.Status)
	assert.Len(t, history, 4)
}

func TestBackoffScheduleExponentialCapsAt60s(t *testing.T) {
	b := time.Second
	var got []time.Duration
	for i := 0; i < 8; i++ {
		got = append(got, b)
		b = nextBackoff(ensemble.BackoffExponential, b)
	}
	want := []time.Duration{1, 2, 4, 8, 16, 32, 60, 60}
	for i, w := range want {
		assert.Equal(t, w*time.Second, got[i])
	}
}

func TestOnFailureAbortReturnsInternalError(t *testing.T) {
	cfg := Config{Minimum: 0.9, OnFailure: ensemble.OnFailureAbort, MaxAttempts: 3}

	exec := NewExecutor()
	_, _, err := exec.Run(context.Background(), "writer", cfg,
		func(attempt int) (core.AgentResponse, error) { return core.AgentResponse{Success: true}, nil },
		func(output interface{}, attempt int, previousScore *float64) (Score, error) {
			return Score{Value: 0.1}, nil
		}, nil)

	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindInternal))
}
