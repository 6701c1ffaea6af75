package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsembleScoreKeepsLatestPassingPerAgent(t *testing.T) {
	s := NewScorer(nil)
	history := []Entry{
		{Agent: "a", Score: 0.5, Passed: false, Attempt: 1},
		{Agent: "a", Score: 0.9, Passed: true, Attempt: 2},
		{Agent: "b", Score: 0.8, Passed: true, Attempt: 1},
	}
	assert.InDelta(t, 0.85, s.EnsembleScore(history), 1e-9)
}

func TestEnsembleScoreZeroWithNoPassingEntries(t *testing.T) {
	s := NewScorer(nil)
	history := []Entry{{Agent: "a", Score: 0.5, Passed: false}}
	assert.Equal(t, 0.0, s.EnsembleScore(history))
}

func TestEnsembleScoreWeighted(t *testing.T) {
	s := NewScorer(map[string]float64{"a": 3, "b": 1})
	history := []Entry{
		{Agent: "a", Score: 1.0, Passed: true},
		{Agent: "b", Score: 0.0, Passed: true},
	}
	assert.InDelta(t, 0.75, s.EnsembleScore(history), 1e-9)
}

func TestQualityMetricsAggregates(t *testing.T) {
	s := NewScorer(nil)
	history := []Entry{
		{Agent: "a", Score: 0.5, Passed: false, Attempt: 1},
		{Agent: "a", Score: 0.9, Passed: true, Attempt: 2},
	}
	m := s.QualityMetrics(history)
	assert.Equal(t, 2, m.TotalEvaluations)
	assert.InDelta(t, 0.7, m.AverageScore, 1e-9)
	assert.Equal(t, 0.5, m.MinScore)
	assert.Equal(t, 0.9, m.MaxScore)
	assert.InDelta(t, 0.5, m.PassRate, 1e-9)
	assert.Equal(t, 1, m.TotalRetries)
}

func TestGetScoreRangeBuckets(t *testing.T) {
	assert.Equal(t, "excellent", GetScoreRange(0.97))
	assert.Equal(t, "good", GetScoreRange(0.85))
	assert.Equal(t, "acceptable", GetScoreRange(0.65))
	assert.Equal(t, "poor", GetScoreRange(0.2))
}

func TestUpdateScoringStateIncrementsRetryCountOnlyOnRetry(t *testing.T) {
	state := NewState()
	state = UpdateScoringState(state, Entry{Agent: "a", Score: 0.5, Passed: false, Attempt: 1})
	state = UpdateScoringState(state, Entry{Agent: "a", Score: 0.9, Passed: true, Attempt: 2})

	assert.Equal(t, 1, state.RetryCount["a"])
	assert.Len(t, state.ScoreHistory, 2)
	assert.InDelta(t, 0.9, state.FinalScore, 1e-9)
}
