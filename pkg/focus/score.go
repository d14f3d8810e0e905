package focus

// Score bounds.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Clamp restricts score to [MinScore, MaxScore].
func Clamp(score float64) float64 {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// ScoreAggregator owns the running focus score. Apply is the only way to
// change it, so the stored value is always inside the valid range.
type ScoreAggregator struct {
	score float64
}

// NewScoreAggregator starts at initial, clamped.
func NewScoreAggregator(initial float64) *ScoreAggregator {
	return &ScoreAggregator{score: Clamp(initial)}
}

// Apply clamps raw, stores it and returns the stored value.
func (a *ScoreAggregator) Apply(raw float64) float64 {
	a.score = Clamp(raw)
	return a.score
}

// Score returns the current score.
func (a *ScoreAggregator) Score() float64 {
	return a.score
}
