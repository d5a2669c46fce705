package game

import "math"

const (
	HPMax  = 100.0
	HPInit = 100.0

	BaseScore          = 100
	FeverScorePerStack = 50

	// ComboWindow is the fraction of the time limit inside which a clear
	// keeps the combo going.
	ComboWindow   = 0.65
	PerfectWindow = 0.35
)

// HP deltas keyed by outcome.
const (
	HPCorrectSubmit = 15.0
	HPComboSubmit   = 20.0
	HPWrongSubmit   = -10.0
	HPOrderTimeout  = -20.0
)

var comboTiers = []struct {
	min        int
	multiplier float64
}{
	{min: 1, multiplier: 1.5},
	{min: 3, multiplier: 2.0},
	{min: 6, multiplier: 3.0},
	{min: 10, multiplier: 5.0},
}

// ComboMultiplier maps a combo count to its score multiplier. It is
// non-decreasing and flat from 10 upwards.
func ComboMultiplier(combo int) float64 {
	for i := len(comboTiers) - 1; i >= 0; i-- {
		if combo >= comboTiers[i].min {
			return comboTiers[i].multiplier
		}
	}
	return 1.0
}

// Judgement grades how quickly an order was cleared.
type Judgement string

const (
	JudgementPerfect Judgement = "perfect"
	JudgementGood    Judgement = "good"
	JudgementClear   Judgement = "clear"
)

// ClearJudgement classifies a clear by elapsed/timeLimit.
func ClearJudgement(elapsed, timeLimit float64) Judgement {
	if timeLimit <= 0 {
		return JudgementClear
	}
	ratio := elapsed / timeLimit
	switch {
	case ratio < PerfectWindow:
		return JudgementPerfect
	case ratio < ComboWindow:
		return JudgementGood
	default:
		return JudgementClear
	}
}

// IsComboEligible reports whether a clear at elapsed keeps the combo.
func IsComboEligible(elapsed, timeLimit float64) bool {
	return elapsed < timeLimit*ComboWindow
}

// ScoreFor is the points for a normal clear at the given (new) combo.
func ScoreFor(combo int) int {
	return int(math.Round(BaseScore * ComboMultiplier(combo)))
}

// FeverScore is the points for a fever stack.
func FeverScore(stack int) int {
	return stack * FeverScorePerStack
}

// ClampHP bounds hp into [0, HPMax].
func ClampHP(hp float64) float64 {
	return math.Max(0, math.Min(HPMax, hp))
}
