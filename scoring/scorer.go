package scoring

// Scorer aggregates a run's score history into ensemble-level metrics
// (spec §4.7).
type Scorer struct {
	weights map[string]float64
}

// NewScorer constructs a Scorer. weights is optional; nil means an
// unweighted arithmetic mean.
func NewScorer(weights map[string]float64) *Scorer {
	return &Scorer{weights: weights}
}

// EnsembleScore keeps the latest passing entry per agent (later passes
// overwrite earlier) and averages those, weighted if weights were
// supplied. With no passing entries, the ensemble score is 0.
func (s *Scorer) EnsembleScore(history []Entry) float64 {
	latest := make(map[string]float64)
	for _, e := range history {
		if e.Passed {
			latest[e.Agent] = e.Score
		}
	}
	if len(latest) == 0 {
		return 0
	}

	if len(s.weights) == 0 {
		var sum float64
		for _, v := range latest {
			sum += v
		}
		return sum / float64(len(latest))
	}

	var weightedSum, totalWeight float64
	for agent, score := range latest {
		w := s.weights[agent]
		if w == 0 {
			w = 1
		}
		weightedSum += score * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// CriterionMetrics summarizes one criterion across a run's history.
type CriterionMetrics struct {
	Scores   []float64
	Average  float64
	PassRate float64
}

// QualityMetrics is the {ensembleScore, averageScore, ...} bundle of
// spec §3/§4.7.
type QualityMetrics struct {
	EnsembleScore     float64
	AverageScore      float64
	MinScore          float64
	MaxScore          float64
	TotalEvaluations  int
	PassRate          float64
	CriteriaBreakdown map[string]CriterionMetrics
	TotalRetries      int
	AverageAttempts   float64
}

// QualityMetrics computes the full-history metrics of spec §4.7.
func (s *Scorer) QualityMetrics(history []Entry) QualityMetrics {
	if len(history) == 0 {
		return QualityMetrics{CriteriaBreakdown: map[string]CriterionMetrics{}}
	}

	var sum, min, max float64
	var passed, retries, attemptSum int
	min = history[0].Score
	max = history[0].Score

	breakdownScores := map[string][]float64{}
	breakdownPassed := map[string]int{}

	for _, e := range history {
		sum += e.Score
		if e.Score < min {
			min = e.Score
		}
		if e.Score > max {
			max = e.Score
		}
		if e.Passed {
			passed++
		}
		if e.Attempt > 1 {
			retries++
		}
		attemptSum += e.Attempt

		for k, v := range e.Breakdown {
			breakdownScores[k] = append(breakdownScores[k], v)
			if e.Passed {
				breakdownPassed[k]++
			}
		}
	}

	criteria := make(map[string]CriterionMetrics, len(breakdownScores))
	for k, scores := range breakdownScores {
		var bsum float64
		for _, v := range scores {
			bsum += v
		}
		criteria[k] = CriterionMetrics{
			Scores:   scores,
			Average:  bsum / float64(len(scores)),
			PassRate: float64(breakdownPassed[k]) / float64(len(scores)),
		}
	}

	n := float64(len(history))
	return QualityMetrics{
		EnsembleScore:     s.EnsembleScore(history),
		AverageScore:      sum / n,
		MinScore:          min,
		MaxScore:          max,
		TotalEvaluations:  len(history),
		PassRate:          float64(passed) / n,
		CriteriaBreakdown: criteria,
		TotalRetries:      retries,
		AverageAttempts:   float64(attemptSum) / n,
	}
}

// Trend is the direction of quality movement across a run (spec §4.7).
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// DetectTrend compares the mean of the last window entries against the
// mean of the window before it. Returns TrendStable when fewer than 2*window
// entries exist.
func DetectTrend(history []Entry, window int) Trend {
	if window <= 0 {
		window = 5
	}
	if len(history) < 2*window {
		return TrendStable
	}

	recent := history[len(history)-window:]
	prior := history[len(history)-2*window : len(history)-window]

	diff := mean(recent) - mean(prior)
	switch {
	case diff > 0.05:
		return TrendImproving
	case diff < -0.05:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// IsQualityDegrading reports whether the recent window trails the prior
// window by more than 0.1.
func IsQualityDegrading(history []Entry, window int) bool {
	if window <= 0 {
		window = 5
	}
	if len(history) < 2*window {
		return false
	}
	recent := history[len(history)-window:]
	prior := history[len(history)-2*window : len(history)-window]
	return mean(prior)-mean(recent) > 0.1
}

func mean(entries []Entry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += e.Score
	}
	return sum / float64(len(entries))
}

// GetRecommendations emits human-readable hints driven by the thresholds
// in spec §4.7.
func GetRecommendations(metrics QualityMetrics) []string {
	var recs []string
	if metrics.EnsembleScore < 0.7 {
		recs = append(recs, "ensemble score is below 0.7; consider tightening prompts or criteria")
	}
	if metrics.TotalEvaluations > 0 && float64(metrics.TotalRetries)/float64(metrics.TotalEvaluations) > 0.5 {
		recs = append(recs, "more than half of evaluations required a retry; the minimum threshold may be too strict")
	}
	if metrics.PassRate < 0.8 {
		recs = append(recs, "pass rate is below 80%; review the failing steps' evaluators")
	}
	for k, cm := range metrics.CriteriaBreakdown {
		if cm.PassRate < 0.7 {
			recs = append(recs, "criterion \""+k+"\" passes less than 70% of the time")
		}
	}
	return recs
}

// GetScoreRange buckets a score per spec §4.6 (excellent ≥0.95, good
// ≥0.8, acceptable ≥0.6, else poor).
func GetScoreRange(score float64) string {
	switch {
	case score >= 0.95:
		return "excellent"
	case score >= 0.8:
		return "good"
	case score >= 0.6:
		return "acceptable"
	default:
		return "poor"
	}
}

// CalculateCompositeScore combines a breakdown into one score, weighted
// if weights is non-empty, else an unweighted mean.
func CalculateCompositeScore(breakdown map[string]float64, weights map[string]float64) float64 {
	if len(breakdown) == 0 {
		return 0
	}
	if len(weights) == 0 {
		var sum float64
		for _, v := range breakdown {
			sum += v
		}
		return sum / float64(len(breakdown))
	}
	var weightedSum, totalWeight float64
	for k, v := range breakdown {
		w := weights[k]
		if w == 0 {
			w = 1
		}
		weightedSum += v * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// CheckThreshold reports whether score passes minimum.
func CheckThreshold(score, minimum float64) bool {
	return score >= minimum
}

// GetFailedCriteria returns the breakdown keys whose score falls below
// minimum.
func GetFailedCriteria(breakdown map[string]float64, minimum float64) []string {
	var failed []string
	for k, v := range breakdown {
		if v < minimum {
			failed = append(failed, k)
		}
	}
	return failed
}
