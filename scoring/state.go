package scoring

// State is ScoringState (spec §3): the per-run score history, retry
// counts, and the final aggregate. UpdateScoringState refreshes FinalScore
// and QualityMetrics on every entry; the orchestrator sets them once more
// after the flow loop.
type State struct {
	ScoreHistory   []Entry
	RetryCount     map[string]int
	FinalScore     float64
	QualityMetrics QualityMetrics
}

// NewState constructs an empty ScoringState.
func NewState() *State {
	return &State{RetryCount: map[string]int{}}
}

// UpdateScoringState returns a new State with entry appended, the
// matching agent's retry count incremented when entry.Attempt>1, and
// metrics recomputed (spec §4.7). FinalScore is recomputed from the
// extended history via the default Scorer; callers wanting per-agent
// weights should recompute FinalScore themselves afterward.
func UpdateScoringState(prev *State, entry Entry) *State {
	next := &State{
		ScoreHistory: append(append([]Entry{}, prev.ScoreHistory...), entry),
		RetryCount:   make(map[string]int, len(prev.RetryCount)),
	}
	for k, v := range prev.RetryCount {
		next.RetryCount[k] = v
	}
	if entry.Attempt > 1 {
		next.RetryCount[entry.Agent]++
	}

	scorer := NewScorer(nil)
	next.FinalScore = scorer.EnsembleScore(next.ScoreHistory)
	next.QualityMetrics = scorer.QualityMetrics(next.ScoreHistory)
	return next
}
